// Package crawler ingests a website into one plain-text file per page.
//
// # Architecture
//
// The Spider drives a Frontier of discovered URLs. Each URL is fetched once
// through a Fetcher, its visible text is extracted by the Parser and written
// through a PageSink, and its hyperlinks are pushed back onto the Frontier
// when they pass the domain restriction and the inclusion filter.
//
// # Components
//
//   - Spider: the crawl loop
//   - Frontier: worklist plus the seen set; depth-first (LIFO) by default
//   - Parser: visible-text and link extraction built on golang.org/x/net/html
//   - Fetcher: HTTP GET capability returning an explicit FetchResult
//   - PageSink: persistence of page text, DirSink writes <name>.txt files
//   - SanitizeFilename: the lossy URL to file name transform
//
// # Limits
//
// There is no page or depth bound and no politeness delay. A site with an
// unbounded number of distinct URLs is crawled until the context is
// cancelled. Connection failures are not retried.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(http.DefaultClient, crawler.WithRequestTimeout(30*time.Second))
//	sink, err := crawler.NewDirSink("output/text/example.com")
//	spider := crawler.NewSpider(fetcher, sink, crawler.WithMustInclude("/docs/"))
//	result, err := spider.Crawl(ctx, "https://example.com/")
package crawler
