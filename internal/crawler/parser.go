package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// JavaScriptPlaceholder is the text client-rendered apps serve to clients
// without JavaScript. Pages containing it are kept but carry no content.
const JavaScriptPlaceholder = "You need to enable JavaScript to run this app."

// Parser extracts visible text and hyperlinks from an HTML document.
//
// The document is parsed with scripting disabled so that <noscript>
// content is a regular subtree; its text is visible to a non-JS client and
// is where the JavaScriptPlaceholder usually lives.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains what the crawler needs from one page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Text is the concatenation of all visible text nodes, in document
	// order, with no separator added between nodes.
	Text string

	// Links are the absolute http(s) targets of every <a href>, in
	// document order. Duplicates are kept; the Frontier dedupes.
	Links []string
}

// RequiresJavaScript reports whether the text is the JS-required placeholder.
func (r *ParseResult) RequiresJavaScript() bool {
	return strings.Contains(r.Text, JavaScriptPlaceholder)
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse reads an HTML document and extracts its text and links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.ParseWithOptions(content, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links: make([]string, 0),
	}

	var text strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if isInvisible(n) {
				return
			}
			p.processElement(n, result)
		case html.TextNode:
			text.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	result.Text = text.String()
	return result, nil
}

// isInvisible reports whether the subtree rooted at n carries no visible text.
func isInvisible(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Template:
		return true
	default:
		return false
	}
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.DataAtom {
	case atom.Title:
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}
	case atom.A:
		if href := getAttr(n, "href"); href != "" {
			if resolved := p.resolveURL(href); resolved != "" {
				result.Links = append(result.Links, resolved)
			}
		}
	}
}

// resolveURL resolves href against the base URL. It returns "" for
// references that cannot be fetched over HTTP: script, mail, phone and
// data URIs, same-page fragments and non-http schemes.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
