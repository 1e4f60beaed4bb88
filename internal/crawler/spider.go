package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/sitecorpus/internal/model"
)

// ErrInvalidSeed is returned when the seed is not an absolute http(s) URL.
var ErrInvalidSeed = errors.New("invalid seed URL: must be an absolute http or https URL")

// Spider crawls a website starting from a seed URL.
//
// The crawl is sequential: one request is in flight at a time, and the
// Frontier, seen set and counters are owned by the goroutine running
// Crawl. A Spider must not run two crawls concurrently.
type Spider struct {
	// fetcher performs the HTTP requests.
	fetcher Fetcher

	// sink persists page text.
	sink PageSink

	// recorder, if set, is told about every visited page.
	recorder Recorder

	// logger receives diagnostics.
	logger *slog.Logger

	// domainRestriction limits expansion to links whose host equals the seed's.
	domainRestriction bool

	// mustInclude, if non-empty, must be a substring of every followed link.
	mustInclude string

	// order is the Frontier traversal policy.
	order TraversalOrder
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithDomainRestriction enables or disables same-host confinement.
// It is enabled by default.
func WithDomainRestriction(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.domainRestriction = enabled
	}
}

// WithMustInclude sets the inclusion filter. Empty disables it.
func WithMustInclude(substr string) SpiderOption {
	return func(s *Spider) {
		s.mustInclude = substr
	}
}

// WithTraversalOrder sets the Frontier policy. DepthFirst is the default.
func WithTraversalOrder(order TraversalOrder) SpiderOption {
	return func(s *Spider) {
		s.order = order
	}
}

// WithRecorder registers a Recorder for visited pages.
func WithRecorder(r Recorder) SpiderOption {
	return func(s *Spider) {
		s.recorder = r
	}
}

// WithSpiderLogger sets the logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches with fetcher and writes to sink.
func NewSpider(fetcher Fetcher, sink PageSink, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:           fetcher,
		sink:              sink,
		domainRestriction: true,
		order:             DepthFirst,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Result summarizes a finished crawl.
type Result struct {
	// Domain is the seed's network location.
	Domain string

	// Visited lists every URL fetched, in visit order.
	Visited []string

	// Fetched counts successful fetches.
	Fetched int

	// Failed counts connection-level failures.
	Failed int

	// FailedPages lists the URLs counted in Failed.
	FailedPages []string

	// JavaScriptPages lists pages whose text was the JS-required placeholder.
	JavaScriptPages []string

	// Discovered is the final size of the seen set.
	Discovered int
}

// Domain returns the network location of rawURL, the key used for domain
// restriction and for naming per-domain output.
func Domain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidSeed
	}
	return u.Host, nil
}

// Crawl visits every URL reachable from seed under the configured filters.
// It returns when the Frontier is empty, when a page cannot be written,
// or when ctx is cancelled; in the last two cases the partial Result is
// returned with the error.
func (s *Spider) Crawl(ctx context.Context, seed string) (*Result, error) {
	domain, err := Domain(seed)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Domain:          domain,
		Visited:         make([]string, 0),
		FailedPages:     make([]string, 0),
		JavaScriptPages: make([]string, 0),
	}

	frontier := NewFrontier(seed, s.order)

	s.logger.Info("starting crawl",
		"seed", seed,
		"domain", domain,
		"domainRestriction", s.domainRestriction,
		"mustInclude", s.mustInclude,
		"order", s.order.String(),
	)

	for {
		select {
		case <-ctx.Done():
			result.Discovered = frontier.SeenCount()
			return result, ctx.Err()
		default:
		}

		pageURL, ok := frontier.Pop()
		if !ok {
			break
		}
		result.Visited = append(result.Visited, pageURL)

		page, links := s.visit(ctx, domain, pageURL)

		if err := s.sink.WritePage(ctx, page); err != nil {
			result.Discovered = frontier.SeenCount()
			return result, err
		}
		if s.recorder != nil {
			if err := s.recorder.RecordPage(ctx, page); err != nil {
				s.logger.Warn("failed to record page", "url", pageURL, "error", err)
			}
		}

		if !page.Fetched() {
			result.Failed++
			result.FailedPages = append(result.FailedPages, pageURL)
			continue
		}
		result.Fetched++
		if page.RequiresJavaScript {
			result.JavaScriptPages = append(result.JavaScriptPages, pageURL)
		}

		for _, link := range links {
			if s.shouldFollow(domain, link) && frontier.Push(link) {
				s.logger.Debug("discovered link", "url", link, "from", pageURL)
			}
		}

		s.logger.Debug("visited page",
			"url", pageURL,
			"pending", frontier.Len(),
			"seen", frontier.SeenCount(),
		)
	}

	result.Discovered = frontier.SeenCount()

	s.logger.Info("crawl finished",
		"domain", domain,
		"visited", len(result.Visited),
		"fetched", result.Fetched,
		"failed", result.Failed,
	)

	return result, nil
}

// visit fetches one URL and turns the outcome into a Page plus its links.
// A failed fetch yields a Page with empty text and no links.
func (s *Spider) visit(ctx context.Context, domain, pageURL string) (*model.Page, []string) {
	page := &model.Page{
		URL:      pageURL,
		Domain:   domain,
		Filename: PageFilename(pageURL),
	}

	fetched := s.fetcher.Fetch(ctx, pageURL)
	if fetched.Failed() {
		page.Status = model.PageStatusFailed
		page.Error = fetched.Err.Error()
		s.logger.Warn("failed to fetch page", "url", pageURL, "error", fetched.Err)
		return page, nil
	}

	page.Status = model.PageStatusFetched
	page.StatusCode = fetched.StatusCode

	parser, err := NewParser(pageURL)
	if err != nil {
		return page, nil
	}
	parsed, err := parser.Parse(bytes.NewReader(fetched.Body))
	if err != nil {
		// x/net/html only fails on reader errors, which a byte slice does not produce.
		s.logger.Warn("failed to parse page", "url", pageURL, "error", err)
		return page, nil
	}

	page.Text = parsed.Text
	page.ComputeHash()
	if parsed.RequiresJavaScript() {
		page.RequiresJavaScript = true
		s.logger.Warn("unable to parse page due to JavaScript requirements", "url", pageURL)
	}

	return page, parsed.Links
}

// shouldFollow applies the domain restriction and the inclusion filter.
func (s *Spider) shouldFollow(domain, link string) bool {
	if s.mustInclude != "" && !strings.Contains(link, s.mustInclude) {
		return false
	}
	if !s.domainRestriction {
		return true
	}
	return isSameHost(domain, link)
}

// isSameHost reports whether link's network location equals domain exactly.
// Subdomains are different hosts.
func isSameHost(domain, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Host == domain
}
