// Package fetch retrieves the ticker digest from the portal backend.
//
// Every fetcher makes exactly one bounded attempt per call. Timeouts,
// transport errors, bad status codes and malformed bodies all surface as
// errors wrapping ErrFetchFailed; retrying is the caller's business.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ppiankov/abhaya/internal/news"
)

const (
	// DefaultTimeout bounds a single digest fetch.
	DefaultTimeout = 2 * time.Second
	// DefaultLimit is the digest size requested from the backend.
	DefaultLimit = 8

	userAgent    = "abhaya-ticker/1.0"
	maxBodyBytes = 1 << 20
)

// ErrFetchFailed is wrapped by every fetch error.
var ErrFetchFailed = errors.New("fetch failed")

// Fetcher retrieves one digest.
type Fetcher interface {
	// Name returns the fetcher identifier (e.g. "rest").
	Name() string

	// Fetch returns the digest items in backend order.
	Fetch(ctx context.Context) ([]news.Item, error)
}

// sharedTransport is reused by every fetcher so refresh cycles keep their
// connections warm.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          20,
	MaxIdleConnsPerHost:   4,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   5 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// httpClient has no timeout of its own; each call bounds itself with a context.
var httpClient = &http.Client{
	Transport: &uaTransport{base: sharedTransport},
}

// uaTransport injects a User-Agent header into every request.
type uaTransport struct {
	base http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}

func failed(source string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, source, err)
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
