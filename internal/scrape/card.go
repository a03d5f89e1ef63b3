package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxAncestorWalk caps the upward search from a listing anchor to the card
// element holding its price/area text. Card markup nests a handful of levels
// at most on every aggregated site.
const maxAncestorWalk = 7

const snippetRunes = 240

// CardText walks upward from anchor through at most maxAncestorWalk ancestor
// containers until hasMarkers accepts the accumulated text, and returns that
// text. When the walk runs past the document root the anchor's own text is
// the fallback.
func CardText(anchor *goquery.Selection, hasMarkers func(string) bool) string {
	card := anchor
	for i := 0; i < maxAncestorWalk; i++ {
		if card.Length() == 0 {
			return SquashText(anchor)
		}
		txt := SquashText(card)
		if hasMarkers(txt) {
			return txt
		}
		card = card.Parent()
	}
	if card.Length() == 0 {
		return SquashText(anchor)
	}
	return SquashText(card)
}

// SquashText renders a selection's text with runs of whitespace collapsed to
// single spaces.
func SquashText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// Snippet bounds a card text to the stored excerpt length without splitting
// a multibyte rune.
func Snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetRunes {
		return s
	}
	return string(r[:snippetRunes])
}

// AbsURL resolves href against the site base, mirroring how the listing
// anchors appear relative in every site's markup.
func AbsURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
