package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/sitecorpus/internal/model"
)

// DefaultMaxTokens is the chunk budget used when none is configured.
const DefaultMaxTokens = 500

// TailPolicy decides what happens to sentences pending at end of input.
type TailPolicy string

const (
	// TailFlush emits the pending sentences as a final chunk.
	TailFlush TailPolicy = "flush"

	// TailDrop discards the pending sentences. Corpora produced before
	// the policy existed were built this way.
	TailDrop TailPolicy = "drop"
)

// ErrUnknownTailPolicy is returned by ParseTailPolicy for unknown names.
var ErrUnknownTailPolicy = errors.New("unknown tail policy: must be flush or drop")

// ParseTailPolicy converts a configuration value into a TailPolicy.
// The empty string selects TailFlush.
func ParseTailPolicy(s string) (TailPolicy, error) {
	switch TailPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TailFlush:
		return TailFlush, nil
	case TailDrop:
		return TailDrop, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTailPolicy, s)
	}
}

// Chunker packs text into chunks of at most maxTokens tokens.
type Chunker struct {
	tokenizer       Tokenizer
	segmenter       Segmenter
	maxTokens       int
	tail            TailPolicy
	keepEmptyChunks bool
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxTokens sets the token budget. Non-positive values are ignored.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithSegmenter replaces the sentence segmenter.
func WithSegmenter(s Segmenter) Option {
	return func(c *Chunker) {
		if s != nil {
			c.segmenter = s
		}
	}
}

// WithTailPolicy sets the end-of-input policy.
func WithTailPolicy(p TailPolicy) Option {
	return func(c *Chunker) {
		c.tail = p
	}
}

// WithKeepEmptyChunks makes an overflow with nothing pending emit ".".
func WithKeepEmptyChunks(keep bool) Option {
	return func(c *Chunker) {
		c.keepEmptyChunks = keep
	}
}

// New creates a Chunker counting tokens with tokenizer.
func New(tokenizer Tokenizer, opts ...Option) *Chunker {
	c := &Chunker{
		tokenizer: tokenizer,
		segmenter: NewSentenceSegmenter(),
		maxTokens: DefaultMaxTokens,
		tail:      TailFlush,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MaxTokens returns the configured budget.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// SplitResult is the outcome of packing one text.
type SplitResult struct {
	// Chunks are the reassembled chunk texts in input order.
	Chunks []string

	// Dropped counts sentences that alone exceeded the budget.
	Dropped int
}

// Split segments text and packs the sentences greedily.
//
// Each sentence s costs CountTokens(" "+s) tokens, plus one for the
// separator that rejoins it. Before a sentence is added, the pending chunk
// is emitted if the sentence would push the running sum past the budget.
// A sentence that alone exceeds the budget is then skipped. Chunks are
// rejoined with ". " and end with ".".
//
// Text ending in the delimiter leaves an empty last fragment. Unless empty
// chunks are kept, empty fragments at the end of a chunk are trimmed and a
// chunk with no text left is not emitted.
func (c *Chunker) Split(text string) SplitResult {
	result := SplitResult{Chunks: make([]string, 0)}

	pending := make([]string, 0)
	sum := 0

	flush := func() {
		parts := pending
		if !c.keepEmptyChunks {
			parts = trimEmptyTail(parts)
		}
		if len(parts) > 0 || c.keepEmptyChunks {
			result.Chunks = append(result.Chunks, strings.Join(parts, SentenceDelimiter)+".")
		}
		pending = pending[:0]
		sum = 0
	}

	for _, sentence := range c.segmenter.Segment(text) {
		tokens := c.tokenizer.CountTokens(" " + sentence)

		if sum+tokens > c.maxTokens {
			flush()
		}

		if tokens > c.maxTokens {
			result.Dropped++
			continue
		}

		pending = append(pending, sentence)
		sum += tokens + 1
	}

	if c.tail == TailFlush && len(pending) > 0 {
		flush()
	}

	return result
}

func trimEmptyTail(parts []string) []string {
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	return parts[:n]
}

// Chunk turns one body text into chunks with their token counts.
//
// Empty text yields no chunks. Text within the budget is returned whole,
// unmodified. Longer text goes through Split and every chunk is recounted.
// The second result is the number of oversized sentences dropped.
func (c *Chunker) Chunk(text string) ([]model.Chunk, int) {
	chunks, dropped, _ := c.chunk(text)
	return chunks, dropped
}

// outcome classifies how Chunk treated a text.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomePassedThrough
	outcomeSplit
)

func (c *Chunker) chunk(text string) ([]model.Chunk, int, outcome) {
	if text == "" {
		return nil, 0, outcomeSkipped
	}

	if tokens := c.tokenizer.CountTokens(text); tokens <= c.maxTokens {
		return []model.Chunk{{Text: text, Tokens: tokens}}, 0, outcomePassedThrough
	}

	split := c.Split(text)
	chunks := make([]model.Chunk, 0, len(split.Chunks))
	for _, s := range split.Chunks {
		chunks = append(chunks, model.Chunk{Text: s, Tokens: c.tokenizer.CountTokens(s)})
	}
	return chunks, split.Dropped, outcomeSplit
}
