package proxy

import (
	"context"
	"net/http"
	"time"
)

// Default header pair presented to the origin. The origin authorizes requests
// by User-Agent and Referer, so both must look like a browser watch session.
const (
	DefaultUserAgent = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/137.0.0.0 Mobile Safari/537.36"
	DefaultReferer = "https://www.animesaturn.cx/watch?file=xNIuYkLOOfAwo&server=0"
)

// Fetcher performs GET requests against the origin with the spoofed header
// pair applied. Implementations must be safe for concurrent use.
type Fetcher interface {
	// Fetch issues a GET for url. rangeHeader, when non-empty, is forwarded
	// verbatim as the Range header. The caller owns the response body.
	Fetch(ctx context.Context, url, rangeHeader string) (*http.Response, error)
}

// OriginClient is a Fetcher backed by a single connection-pooled http.Client
// shared across requests.
type OriginClient struct {
	client    *http.Client
	userAgent string
	referer   string
}

// NewOriginClient returns an OriginClient with the given overall request
// timeout (zero means unbounded, which matches the origin's slow segment
// delivery) and header pair. Empty userAgent or referer fall back to the
// defaults.
func NewOriginClient(timeout time.Duration, userAgent, referer string) *OriginClient {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if referer == "" {
		referer = DefaultReferer
	}
	return &OriginClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		referer:   referer,
	}
}

// Fetch implements Fetcher. The request is bound to ctx so a client
// disconnect cancels the upstream transfer and releases the connection.
func (c *OriginClient) Fetch(ctx context.Context, url, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", c.referer)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	return c.client.Do(req)
}
