// Package identity supplies rotating browser identities for the fetch layer.
// Each profile is a coherent header set; a retry after a soft block switches
// to the next profile so the second attempt does not present the exact same
// fingerprint.
package identity

import (
	"net/http"
	"sync/atomic"
)

type Profile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// Apply sets the profile's headers on req.
func (p Profile) Apply(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", p.Accept)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

const htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"

// Defaults covers the common desktop browsers; the first entry is the
// primary identity, the rest are rotation targets.
func Defaults() []Profile {
	return []Profile{
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) " +
				"Chrome/121.0.0.0 Safari/537.36",
			Accept:         htmlAccept,
			AcceptLanguage: "pt-PT,pt;q=0.9,en;q=0.7",
		},
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) " +
				"Gecko/20100101 Firefox/122.0",
			Accept:         htmlAccept,
			AcceptLanguage: "pt-PT,pt;q=0.8,en-US;q=0.5,en;q=0.3",
		},
		{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
				"AppleWebKit/605.1.15 (KHTML, like Gecko) " +
				"Version/17.2 Safari/605.1.15",
			Accept:         htmlAccept,
			AcceptLanguage: "pt-PT,pt;q=0.9,en;q=0.8",
		},
	}
}

// Provider hands out profiles round-robin.
type Provider struct {
	profiles []Profile
	idx      uint64
}

func NewProvider(profiles []Profile) *Provider {
	if len(profiles) == 0 {
		profiles = Defaults()
	}
	return &Provider{profiles: profiles}
}

// Primary returns the first profile without advancing rotation.
func (p *Provider) Primary() Profile {
	return p.profiles[0]
}

// Next returns the following profile in rotation order, skipping the primary
// so a rotated retry always changes identity.
func (p *Provider) Next() Profile {
	if len(p.profiles) == 1 {
		return p.profiles[0]
	}
	i := atomic.AddUint64(&p.idx, 1)
	return p.profiles[1+int(i%uint64(len(p.profiles)-1))]
}
