// Package model defines the core data structures shared by the crawler,
// the chunker and the storage layers.
//
// This package contains the following main types:
//   - Page: the outcome of visiting one URL during a crawl
//   - Record: one row of the collated title/text corpus
//   - Chunk: a token-bounded span of text ready for embedding
//   - Run: the state one pipeline execution accumulates for a site
//
// Models live in their own package so that crawler, corpus, database and
// report can all depend on them without import cycles.
package model
