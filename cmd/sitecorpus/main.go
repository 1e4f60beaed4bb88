// Package main provides the entry point for the sitecorpus CLI.
//
// sitecorpus crawls a website into plain-text pages, collates them into a
// title/text table and packs that table into token-bounded chunks ready
// for embedding.
//
// Usage:
//
//	sitecorpus build <seed-url>...
//	sitecorpus crawl <seed-url>
//	sitecorpus collate <seed-url|domain>
//	sitecorpus tokenize <seed-url|domain>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
