package httpc

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

func New(timeout time.Duration) *http.Client {
	return NewWithProxy(timeout, "")
}

// NewWithProxy builds the tuned http.Client shared by all adapters. proxyURL,
// when non-empty, routes every request through a fixed forward proxy.
func NewWithProxy(timeout time.Duration, proxyURL string) *http.Client {
	jar, _ := cookiejar.New(nil)

	var proxyFunc func(*http.Request) (*url.URL, error)
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			proxyFunc = http.ProxyURL(u)
		}
	}

	tr := &http.Transport{
		Proxy: proxyFunc,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
		Jar:       jar,
	}
}
