package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// PageStatus describes how a visit ended.
type PageStatus string

const (
	// PageStatusFetched means the GET completed and the body was parsed.
	// Non-2xx responses count as fetched; only transport failures do not.
	PageStatusFetched PageStatus = "fetched"

	// PageStatusFailed means the request failed at the connection level
	// (DNS, refused connection, reset, deadline exceeded).
	PageStatusFailed PageStatus = "failed"
)

// Page is the record of a single visited URL.
// Text is empty when Status is PageStatusFailed.
type Page struct {
	// URL is the absolute URL that was requested.
	URL string `json:"url"`

	// Domain is the network location of the crawl seed this page belongs to.
	Domain string `json:"domain"`

	// Filename is the sanitized file name the text was written to.
	Filename string `json:"filename"`

	// Status tells whether the fetch succeeded.
	Status PageStatus `json:"status"`

	// StatusCode is the HTTP status code, zero for failed fetches.
	StatusCode int `json:"status_code,omitempty"`

	// Text is the visible text extracted from the HTML document.
	Text string `json:"text,omitempty"`

	// RequiresJavaScript is set when the text contains the
	// "enable JavaScript" placeholder of client-rendered apps.
	RequiresJavaScript bool `json:"requires_javascript,omitempty"`

	// Error holds the fetch error message for failed pages.
	Error string `json:"error,omitempty"`

	// Hash is the SHA-256 of Text.
	Hash string `json:"hash,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page text.
func (p *Page) ComputeHash() {
	if p.Text == "" {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(p.Text))
	p.Hash = hex.EncodeToString(hash[:])
}

// Fetched reports whether the page was retrieved successfully.
func (p *Page) Fetched() bool {
	return p.Status == PageStatusFetched
}
