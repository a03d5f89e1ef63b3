package sites

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imoradar/internal/domain/models"
	"imoradar/internal/scrape"
)

type Remax struct {
	f    scrape.Fetcher
	base string
}

func NewRemax(f scrape.Fetcher) *Remax {
	return &Remax{f: f, base: "https://remax.pt"}
}

func (s *Remax) Name() string { return "remax" }

func (s *Remax) Scrape(ctx context.Context, q scrape.Query) ([]models.Listing, error) {
	return scrape.Paginate(ctx, s.f, q.Pages,
		func(page int) string { return s.buildURL(q, page) },
		func(html string) []models.Listing { return s.parse(html, q) },
	)
}

// /pt/<modo>/apartamento/t2/<distrito>?page=2
// Pagination on the live site is sometimes infinite scroll; the page query
// still answers for the server-rendered slices.
func (s *Remax) buildURL(q scrape.Query, page int) string {
	mode := "arrendar"
	if q.SearchType == models.SearchBuy {
		mode = "comprar"
	}
	u := fmt.Sprintf("%s/pt/%s/apartamento", s.base, mode)
	if seg, ok := typologySegment(q.Typology); ok {
		u += "/" + seg
	}
	u += "/" + q.DistrictSlug
	if page > 1 {
		u += fmt.Sprintf("?page=%d", page)
	}
	return u
}

func (s *Remax) parse(html string, q scrape.Query) []models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base := mustBase(s.base)

	prefix := `a[href^="/pt/imoveis/arrendamento-"]`
	if q.SearchType == models.SearchBuy {
		prefix = `a[href^="/pt/imoveis/venda-"]`
	}

	var out []models.Listing
	doc.Find(prefix).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		txt := scrape.CardText(a, func(t string) bool {
			return hasEuro(t) && strings.Contains(t, "m²")
		})

		title := scrape.SquashText(a)
		if title == "" {
			title = "RE/MAX"
		}

		if l, ok := listingFrom(s.Name(), q, title, scrape.AbsURL(base, href), txt); ok {
			out = append(out, l)
		}
	})
	return scrape.DedupeByURL(out)
}
