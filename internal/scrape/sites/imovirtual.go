package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imoradar/internal/domain/models"
	"imoradar/internal/extract"
	"imoradar/internal/scrape"
)

type Imovirtual struct {
	f    scrape.Fetcher
	base string
}

func NewImovirtual(f scrape.Fetcher) *Imovirtual {
	return &Imovirtual{f: f, base: "https://www.imovirtual.com"}
}

func (s *Imovirtual) Name() string { return "imovirtual" }

func (s *Imovirtual) Scrape(ctx context.Context, q scrape.Query) ([]models.Listing, error) {
	return scrape.Paginate(ctx, s.f, q.Pages,
		func(page int) string { return s.buildURL(q, page) },
		func(html string) []models.Listing { return s.parse(html, q) },
	)
}

// /pt/resultados/arrendar/apartamento%2Ct2/<distrito>?page=2
func (s *Imovirtual) buildURL(q scrape.Query, page int) string {
	mode := "arrendar"
	if q.SearchType == models.SearchBuy {
		mode = "comprar"
	}
	seg := "apartamento"
	if t, ok := typologySegment(q.Typology); ok {
		seg = "apartamento%2C" + t
	}
	u := fmt.Sprintf("%s/pt/resultados/%s/%s/%s", s.base, mode, seg, q.DistrictSlug)
	if page > 1 {
		u += fmt.Sprintf("?page=%d", page)
	}
	return u
}

// parse prefers the embedded application/ld+json ItemList payload; it is the
// higher-fidelity path when the site ships one. Anchor walking covers pages
// without it.
func (s *Imovirtual) parse(html string, q scrape.Query) []models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	if out := s.parseStructured(doc, q); len(out) > 0 {
		return scrape.DedupeByURL(out)
	}
	return scrape.DedupeByURL(s.parseAnchors(doc, q))
}

// ldNumber tolerates the quoted numbers JSON-LD payloads routinely ship.
type ldNumber float64

func (n *ldNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*n = ldNumber(v)
	return nil
}

type ldOffer struct {
	Price ldNumber `json:"price"`
}

type ldFloorSize struct {
	Value ldNumber `json:"value"`
}

type ldItem struct {
	Type      string       `json:"@type"`
	Name      string       `json:"name"`
	URL       string       `json:"url"`
	Offers    *ldOffer     `json:"offers"`
	FloorSize *ldFloorSize `json:"floorSize"`
}

type ldItemList struct {
	Type            string `json:"@type"`
	ItemListElement []struct {
		Item *ldItem `json:"item"`
		URL  string  `json:"url"`
		Name string  `json:"name"`
	} `json:"itemListElement"`
}

func (s *Imovirtual) parseStructured(doc *goquery.Document, q scrape.Query) []models.Listing {
	base := mustBase(s.base)

	var out []models.Listing
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sc *goquery.Selection) {
		var list ldItemList
		if err := json.Unmarshal([]byte(sc.Text()), &list); err != nil {
			return
		}
		if list.Type != "ItemList" || len(list.ItemListElement) == 0 {
			return
		}

		for _, el := range list.ItemListElement {
			item := el.Item
			if item == nil {
				item = &ldItem{URL: el.URL, Name: el.Name}
			}
			if item.URL == "" {
				continue
			}

			var price, area *float64
			if item.Offers != nil && item.Offers.Price > 0 {
				v := float64(item.Offers.Price)
				price = &v
			}
			if item.FloorSize != nil && item.FloorSize.Value > 0 {
				v := float64(item.FloorSize.Value)
				area = &v
			}
			if price == nil && area == nil {
				continue
			}

			out = append(out, models.Listing{
				URL:        scrape.AbsURL(base, item.URL),
				Source:     s.Name(),
				District:   q.District,
				Title:      item.Name,
				PriceEUR:   price,
				AreaM2:     area,
				EURM2:      extract.PricePerArea(price, area),
				Snippet:    scrape.Snippet(item.Name),
				Typology:   extract.ExtractTypology(item.Name),
				SearchType: q.SearchType,
			})
		}
	})
	return out
}

func (s *Imovirtual) parseAnchors(doc *goquery.Document, q scrape.Query) []models.Listing {
	base := mustBase(s.base)

	var out []models.Listing
	doc.Find(`a[href^="/pt/anuncio/"]`).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		txt := scrape.CardText(a, func(t string) bool {
			return strings.Contains(t, "€/m²") || strings.Contains(t, "m²") || hasEuro(t)
		})

		title := scrape.SquashText(a)
		if title == "" {
			return
		}

		l, keep := listingFrom(s.Name(), q, title, scrape.AbsURL(base, href), txt)
		if !keep {
			return
		}

		// The site often states €/m² but not the area; back the area out.
		if l.AreaM2 == nil && l.PriceEUR != nil && l.EURM2 != nil && *l.EURM2 > 0 {
			v := extract.Round2(*l.PriceEUR / *l.EURM2)
			l.AreaM2 = &v
		}

		out = append(out, l)
	})
	return out
}
