// Package httpclient holds the outbound HTTP clients vidcat uses for catalog
// fetches, channel page scrapes, site checks and metadata API lookups.
package httpclient

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// FetchTimeout bounds a single catalog, page or API request on the shared client.
	FetchTimeout = 20 * time.Second

	// UserAgent identifies vidcat to the servers it talks to.
	UserAgent = "vidcat/1.0 (+catalog maintenance)"
)

// Only a handful of hosts are ever contacted (the site, youtube.com and the
// Data API), so the idle pool stays small.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     60 * time.Second,
	}
}

var shared = &http.Client{Timeout: FetchTimeout, Transport: newTransport()}

// Default returns the shared HTTP client for catalog, scrape and metadata API
// calls made without an explicit client.
func Default() *http.Client {
	return shared
}

// WithTimeout returns a client on its own transport with the given timeout.
// The resolve command sizes page fetches with it from VIDCAT_FETCH_TIMEOUT or
// -timeout, and the check command uses short timeouts for site checks.
func WithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: newTransport()}
}

// RateLimited returns a copy of base whose requests wait on a token bucket of
// rps requests per second (burst b). Waiting honours the request context. A
// non-positive rps returns base unchanged.
func RateLimited(base *http.Client, rps float64, b int) *http.Client {
	if base == nil {
		base = Default()
	}
	if rps <= 0 {
		return base
	}
	if b < 1 {
		b = 1
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	out := *base
	out.Transport = &limitedTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), b),
	}
	return &out
}

type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
