package sites

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imoradar/internal/domain/models"
	"imoradar/internal/scrape"
)

type Idealista struct {
	f    scrape.Fetcher
	base string
}

func NewIdealista(f scrape.Fetcher) *Idealista {
	return &Idealista{f: f, base: "https://www.idealista.pt"}
}

func (s *Idealista) Name() string { return "idealista" }

func (s *Idealista) Scrape(ctx context.Context, q scrape.Query) ([]models.Listing, error) {
	return scrape.Paginate(ctx, s.f, q.Pages,
		func(page int) string { return s.buildURL(q, page) },
		func(html string) []models.Listing { return s.parse(html, q) },
	)
}

// /arrendar-casas/<distrito>-distrito/com-t2/pagina-2
func (s *Idealista) buildURL(q scrape.Query, page int) string {
	mode := "arrendar-casas"
	if q.SearchType == models.SearchBuy {
		mode = "comprar-casas"
	}
	u := fmt.Sprintf("%s/%s/%s-distrito/", s.base, mode, q.DistrictSlug)
	if seg, ok := typologySegment(q.Typology); ok {
		u += "com-" + seg + "/"
	}
	if page > 1 {
		u = strings.TrimRight(u, "/") + fmt.Sprintf("/pagina-%d", page)
	}
	return u
}

// Idealista renders search results as article.item cards with an a.item-link
// detail anchor, so the card is addressed directly instead of walking up
// from the anchor.
func (s *Idealista) parse(html string, q scrape.Query) []models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base := mustBase(s.base)

	var out []models.Listing
	doc.Find("article.item").Each(func(_ int, art *goquery.Selection) {
		a := art.Find("a.item-link").First()
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		txt := scrape.SquashText(art)
		title := scrape.SquashText(a)

		if l, ok := listingFrom(s.Name(), q, title, scrape.AbsURL(base, href), txt); ok {
			out = append(out, l)
		}
	})
	return scrape.DedupeByURL(out)
}
