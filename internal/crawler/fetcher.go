package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is the fixed identifying header sent with every request.
const DefaultUserAgent = "XY"

// Fetcher retrieves a single URL. Implementations block until the
// response is read or the request fails; they never retry.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) FetchResult
}

// FetchResult is the outcome of one fetch. Exactly one of Body and Err is
// meaningful: Err is non-nil for a connection-level failure, in which case
// the page contributes no text and no links.
type FetchResult struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status. Non-2xx responses are still successful
	// fetches whose bodies are parsed.
	StatusCode int

	// ContentType is the response Content-Type header.
	ContentType string

	// Body is the response body decoded to UTF-8.
	Body []byte

	// Err is the transport error, if any.
	Err error
}

// Failed reports whether the fetch failed at the connection level.
func (r FetchResult) Failed() bool {
	return r.Err != nil
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, pageURL string) FetchResult

// Fetch calls f(ctx, pageURL).
func (f FetcherFunc) Fetch(ctx context.Context, pageURL string) FetchResult {
	return f(ctx, pageURL)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	// client is the HTTP client used for every request.
	client *http.Client

	// userAgent is the User-Agent header value.
	userAgent string

	// timeout bounds a single request including the body read.
	// Zero leaves the client's own behavior in place.
	timeout time.Duration
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithRequestTimeout sets a per-request deadline. A request that exceeds
// it is reported as a connection-level failure.
func WithRequestTimeout(d time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client means http.DefaultClient.
func NewHTTPFetcher(client *http.Client, opts ...HTTPFetcherOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}

	f := &HTTPFetcher{
		client:    client,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs a GET request for pageURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) FetchResult {
	result := FetchResult{URL: pageURL}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		result.Err = fmt.Errorf("failed to build request: %w", err)
		return result
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	var body io.Reader = resp.Body
	if decoded, err := charset.NewReader(resp.Body, result.ContentType); err == nil {
		body = decoded
	}

	result.Body, err = io.ReadAll(body)
	if err != nil {
		result.Err = fmt.Errorf("failed to read response body: %w", err)
		result.Body = nil
	}

	return result
}
