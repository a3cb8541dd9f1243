package collector

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const maxRedirects = 10

// newHTTPClient builds a resty client with a fixed timeout, client signature,
// redirect following and optional proxy.
func newHTTPClient(timeout time.Duration, userAgent, proxyURL string) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return c
}
