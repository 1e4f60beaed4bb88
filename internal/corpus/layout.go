package corpus

import "path/filepath"

// DefaultRoot is the default output root directory.
const DefaultRoot = "output"

// Layout resolves artifact paths for a domain under an output root.
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root; empty means DefaultRoot.
func NewLayout(root string) Layout {
	if root == "" {
		root = DefaultRoot
	}
	return Layout{Root: root}
}

// TextDir is the directory holding one text file per crawled page.
func (l Layout) TextDir(domain string) string {
	return filepath.Join(l.Root, "text", domain)
}

// ProcessedDir holds the collated and chunked tables.
func (l Layout) ProcessedDir() string {
	return filepath.Join(l.Root, "processed")
}

// ProcessedPath is the collated title/text table for domain.
func (l Layout) ProcessedPath(domain string) string {
	return filepath.Join(l.ProcessedDir(), domain+".csv")
}

// TokensPath is the chunk table for domain.
func (l Layout) TokensPath(domain string) string {
	return filepath.Join(l.ProcessedDir(), domain+"-tokens.csv")
}
