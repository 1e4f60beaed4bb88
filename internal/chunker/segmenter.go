package chunker

import "strings"

// SentenceDelimiter separates sentences for the default segmenter.
const SentenceDelimiter = ". "

// Segmenter cuts text into the units the Chunker packs.
type Segmenter interface {
	Segment(text string) []string
}

// SegmenterFunc adapts a function to the Segmenter interface.
type SegmenterFunc func(text string) []string

// Segment calls f(text).
func (f SegmenterFunc) Segment(text string) []string {
	return f(text)
}

// DelimiterSegmenter splits on a literal delimiter. The delimiter itself
// is discarded. No attempt is made to recognize abbreviations, quotes or
// decimal numbers.
type DelimiterSegmenter struct {
	Delimiter string
}

// NewSentenceSegmenter returns the naive ". " splitter.
func NewSentenceSegmenter() DelimiterSegmenter {
	return DelimiterSegmenter{Delimiter: SentenceDelimiter}
}

// Segment splits text on the delimiter. Empty text yields one empty unit,
// the same as strings.Split.
func (s DelimiterSegmenter) Segment(text string) []string {
	return strings.Split(text, s.Delimiter)
}
