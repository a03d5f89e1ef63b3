// Package extract holds the pure text-extraction helpers shared by all site
// adapters: euro amounts, living areas, price-per-area figures, typology codes
// and district slugs pulled out of free-form Portuguese listing text.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	euroAmountRe = regexp.MustCompile(`(\d[\d.\s]*)(?:,(\d+))?\s*€`)
	areaNamedRe  = regexp.MustCompile(`(?i)[áa]rea\s*(?:bruta|[úu]til)\s*[:\-]?\s*(\d+(?:[.,]\d+)?)\s*m(?:\s*²|\s*2)`)
	areaRe       = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*m(?:\s*²|\s*2)`)
	euroPerM2Re  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*€\s*/\s*m²`)
	typologyRe   = regexp.MustCompile(`(?i)\bT\s*(\d+)(?:\s*\+\s*(\d+))?`)

	wsRe      = regexp.MustCompile(`\s+`)
	nonSlugRe = regexp.MustCompile(`[^a-z0-9\-]+`)
	dashesRe  = regexp.MustCompile(`-{2,}`)

	// "€/mês" keeps its euro marker so monthly rents still parse.
	amountCleaner = strings.NewReplacer(" ", " ", "€/mês", "€", "/mês", "")
)

// ParseEuro extracts the first euro amount from text, handling thousands
// separators ("1 200 €", "1.200€") and decimal commas ("850,50 €").
func ParseEuro(text string) *float64 {
	if text == "" {
		return nil
	}
	t := strings.TrimSpace(amountCleaner.Replace(text))
	m := euroAmountRe.FindStringSubmatch(t)
	if m == nil {
		return nil
	}
	whole := strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' {
			return -1
		}
		return r
	}, m[1])
	raw := whole
	if m[2] != "" {
		raw = whole + "." + m[2]
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseArea extracts a living area in m². A labeled area ("Área bruta 105 m²")
// wins over the first bare "<n> m²" occurrence.
func ParseArea(text string) *float64 {
	if text == "" {
		return nil
	}
	t := strings.ReplaceAll(text, " ", " ")
	m := areaNamedRe.FindStringSubmatch(t)
	if m == nil {
		m = areaRe.FindStringSubmatch(t)
	}
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseEuroPerM2 extracts an explicit "<n> €/m²" figure.
func ParseEuroPerM2(text string) *float64 {
	if text == "" {
		return nil
	}
	t := strings.ReplaceAll(text, " ", " ")
	m := euroPerM2Re.FindStringSubmatch(t)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// PricePerArea derives €/m² from price and area when both are known,
// rounded to 2 decimals.
func PricePerArea(price, area *float64) *float64 {
	if price == nil || area == nil || *area == 0 {
		return nil
	}
	v := Round2(*price / *area)
	return &v
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeTypology canonicalizes a typology code: trimmed, uppercased,
// spaces stripped, bare digits prefixed with T; "*", "ALL" and "T*" collapse
// to the wildcard "T*". The empty string normalizes to the T2 default.
// Normalization is idempotent.
func NormalizeTypology(s string) string {
	t := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "")
	if t == "" {
		return "T2"
	}
	if t == "*" || t == "ALL" || t == "T*" {
		return "T*"
	}
	if !strings.HasPrefix(t, "T") {
		t = "T" + t
	}
	return t
}

// TypologyTokens returns every typology token in text in canonical form,
// e.g. "Moradia T 2+1 perto de T3" -> ["T2+1", "T3"].
func TypologyTokens(text string) []string {
	ms := typologyRe.FindAllStringSubmatch(text, -1)
	if ms == nil {
		return nil
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		tok := "T" + m[1]
		if m[2] != "" {
			tok += "+" + m[2]
		}
		out = append(out, tok)
	}
	return out
}

// ExtractTypology returns the first typology token found in text, or ""
// when the text carries none.
func ExtractTypology(text string) string {
	toks := TypologyTokens(text)
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}

// MatchesTypology reports whether text mentions exactly the queried typology.
// The wildcard matches everything. A plain T<n> query deliberately does not
// match a T<n>+<m> token, so filtering by T2 excludes T2+1 listings.
func MatchesTypology(text, typology string) bool {
	want := NormalizeTypology(typology)
	if want == "T*" {
		return true
	}
	for _, tok := range TypologyTokens(text) {
		if tok == want {
			return true
		}
	}
	return false
}

// Slugify builds the accent-stripped, lowercase, hyphenated district slug
// used in site URLs: "Viana do Castelo" -> "viana-do-castelo".
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}
	out := strings.ToLower(strings.TrimSpace(ascii))
	out = wsRe.ReplaceAllString(out, "-")
	out = nonSlugRe.ReplaceAllString(out, "")
	out = dashesRe.ReplaceAllString(out, "-")
	return out
}
