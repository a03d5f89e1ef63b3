package sites

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imoradar/internal/domain/models"
	"imoradar/internal/scrape"
)

type OLX struct {
	f    scrape.Fetcher
	base string
}

func NewOLX(f scrape.Fetcher) *OLX {
	return &OLX{f: f, base: "https://www.olx.pt"}
}

func (s *OLX) Name() string { return "olx" }

func (s *OLX) Scrape(ctx context.Context, q scrape.Query) ([]models.Listing, error) {
	return scrape.Paginate(ctx, s.f, q.Pages,
		func(page int) string { return s.buildURL(q, page) },
		func(html string) []models.Listing { return s.parse(html, q) },
	)
}

// /d/<distrito>/imoveis/apartamentos-casas-<modo>/apartamentos/q-t2/?page=2
func (s *OLX) buildURL(q scrape.Query, page int) string {
	mode := "arrendamento"
	if q.SearchType == models.SearchBuy {
		mode = "venda"
	}
	u := fmt.Sprintf("%s/d/%s/imoveis/apartamentos-casas-%s/apartamentos/", s.base, q.DistrictSlug, mode)
	if seg, ok := typologySegment(q.Typology); ok {
		u += "q-" + seg + "/"
	}
	if page > 1 {
		u += fmt.Sprintf("?page=%d", page)
	}
	return u
}

func (s *OLX) parse(html string, q scrape.Query) []models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base := mustBase(s.base)

	var out []models.Listing
	doc.Find(`a[href^="/d/anuncio/"]`).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		txt := scrape.CardText(a, func(t string) bool { return hasEuro(t) || hasArea(t) })

		title := scrape.SquashText(a)
		if title == "" {
			title = "OLX"
		}

		if l, ok := listingFrom(s.Name(), q, title, scrape.AbsURL(base, href), txt); ok {
			out = append(out, l)
		}
	})
	return scrape.DedupeByURL(out)
}
