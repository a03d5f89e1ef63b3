package sites

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imoradar/internal/domain/models"
	"imoradar/internal/extract"
	"imoradar/internal/scrape"
)

type CasaSapo struct {
	f    scrape.Fetcher
	base string
}

func NewCasaSapo(f scrape.Fetcher) *CasaSapo {
	return &CasaSapo{f: f, base: "https://casa.sapo.pt"}
}

func (s *CasaSapo) Name() string { return "casasapo" }

func (s *CasaSapo) Scrape(ctx context.Context, q scrape.Query) ([]models.Listing, error) {
	return scrape.Paginate(ctx, s.f, q.Pages,
		func(page int) string { return s.buildURL(q, page) },
		func(html string) []models.Listing { return s.parse(html, q) },
	)
}

// /alugar-apartamentos/t2/distrito.<distrito>/?pn=2
func (s *CasaSapo) buildURL(q scrape.Query, page int) string {
	mode := "alugar-apartamentos"
	if q.SearchType == models.SearchBuy {
		mode = "comprar-apartamentos"
	}
	seg, ok := typologySegment(q.Typology)
	if !ok {
		seg = "t2"
	}
	u := fmt.Sprintf("%s/%s/%s/distrito.%s/", s.base, mode, seg, q.DistrictSlug)
	if page > 1 {
		u += fmt.Sprintf("?pn=%d", page)
	}
	return u
}

// Casa Sapo card anchors carry the whole card text themselves, so the walk
// is unnecessary; the anchor text is gated on the currency/area markers and
// the transaction keyword instead.
func (s *CasaSapo) parse(html string, q scrape.Query) []models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base := mustBase(s.base)

	keyword := "alugar"
	if q.SearchType == models.SearchBuy {
		keyword = "comprar"
	}

	var out []models.Listing
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		txt := scrape.SquashText(a)

		if href == "" || !strings.Contains(txt, "m²") || !hasEuro(txt) {
			return
		}
		if !strings.Contains(txt, "Apartamento") && extract.ExtractTypology(txt) == "" {
			return
		}
		if !strings.Contains(strings.ToLower(txt), keyword) {
			return
		}

		title := txt
		if r := []rune(title); len(r) > 90 {
			title = string(r[:90])
		}

		if l, ok := listingFrom(s.Name(), q, title, scrape.AbsURL(base, href), txt); ok {
			out = append(out, l)
		}
	})
	return scrape.DedupeByURL(out)
}
