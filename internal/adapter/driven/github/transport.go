package github

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// newHTTPClient builds the transport stack used for every GitHub call,
// outermost first:
//  1. oauth2 (static bearer token; skipped when no token is configured)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. revalidateTransport (every GET asks the provider; no cached answer is
//     served without a round trip)
//  4. httpcache (ETag revalidation, a 304 replays the stored body)
//  5. throttledTransport (client-side requests-per-second limit)
func newHTTPClient(opts Options) *http.Client {
	throttle := &throttledTransport{
		base:    http.DefaultTransport,
		limiter: newLimiter(opts.RequestsPerSecond),
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = throttle

	rateLimitClient := github_ratelimit.NewClient(&revalidateTransport{base: cacheTransport})
	if opts.Token == "" {
		return rateLimitClient
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   rateLimitClient.Transport,
		},
	}
}

// newLimiter returns a limiter allowing rps requests per second with a burst of
// ceil(rps). Non-positive rps means no limit.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), int(math.Ceil(rps)))
}

// throttledTransport waits on a rate limiter before each request.
type throttledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}
	return t.base.RoundTrip(req)
}

// revalidateTransport marks GET requests with max-age=0. httpcache then treats
// any stored response as stale and sends a conditional request with its ETag,
// so labels and state are always current while unchanged bodies still come
// back as a 304.
type revalidateTransport struct {
	base http.RoundTripper
}

func (t *revalidateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Cache-Control", "max-age=0")
	return t.base.RoundTrip(clone)
}
