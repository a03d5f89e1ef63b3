package sites

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imoradar/internal/domain/models"
	"imoradar/internal/scrape"
)

type Supercasa struct {
	f    scrape.Fetcher
	base string
}

func NewSupercasa(f scrape.Fetcher) *Supercasa {
	return &Supercasa{f: f, base: "https://supercasa.pt"}
}

func (s *Supercasa) Name() string { return "supercasa" }

func (s *Supercasa) Scrape(ctx context.Context, q scrape.Query) ([]models.Listing, error) {
	return scrape.Paginate(ctx, s.f, q.Pages,
		func(page int) string { return s.buildURL(q, page) },
		func(html string) []models.Listing { return s.parse(html, q) },
	)
}

// /arrendar-casas/<distrito>-distrito/com-t2/pagina-2
func (s *Supercasa) buildURL(q scrape.Query, page int) string {
	mode := "arrendar-casas"
	if q.SearchType == models.SearchBuy {
		mode = "comprar-casas"
	}
	u := fmt.Sprintf("%s/%s/%s-distrito", s.base, mode, q.DistrictSlug)
	if seg, ok := typologySegment(q.Typology); ok {
		u += "/com-" + seg
	}
	if page > 1 {
		u += fmt.Sprintf("/pagina-%d", page)
	}
	return u
}

func (s *Supercasa) parse(html string, q scrape.Query) []models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base := mustBase(s.base)

	// Detail hrefs look like /arrendamento-apartamento-t2-leiria/i1234567
	// (or /venda-... when buying); "/i<id>" is the stable part.
	wantPrefix := "/arrendamento-"
	if q.SearchType == models.SearchBuy {
		wantPrefix = "/venda-"
	}

	var out []models.Listing
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		if !strings.HasPrefix(href, wantPrefix) && !strings.Contains(href, "/i") {
			return
		}

		txt := scrape.CardText(a, func(t string) bool { return hasArea(t) && hasEuro(t) })

		title := scrape.SquashText(a)
		if title == "" {
			title = "Anúncio"
		}

		if l, ok := listingFrom(s.Name(), q, title, scrape.AbsURL(base, href), txt); ok {
			out = append(out, l)
		}
	})
	return scrape.DedupeByURL(out)
}
