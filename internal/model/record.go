package model

// Record is one row of the collated corpus: a page title and its body text.
type Record struct {
	Title string
	Text  string
}

// Chunk is a span of one or more sentences bounded by a token budget.
type Chunk struct {
	// Text is the reassembled chunk text.
	Text string

	// Tokens is the tokenizer's count for Text.
	Tokens int
}

// ChunkStats summarizes the output of one chunking run.
type ChunkStats struct {
	// Records is the number of input rows considered.
	Records int

	// Skipped counts rows with empty text.
	Skipped int

	// PassedThrough counts rows that fit the budget and were kept whole.
	PassedThrough int

	// Split counts rows that were broken into several chunks.
	Split int

	// DroppedSentences counts sentences larger than the budget.
	DroppedSentences int

	// Chunks is the number of chunks emitted.
	Chunks int

	// Tokens is the sum of Tokens over all emitted chunks.
	Tokens int
}
