package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used by the ada-002 embedding model.
const DefaultEncoding = "cl100k_base"

// Tokenizer counts the tokens of a string. Implementations passed to
// ChunkRecords with a concurrency above one must be safe for concurrent use.
type Tokenizer interface {
	CountTokens(text string) int
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(text string) int

// CountTokens calls f(text).
func (f TokenizerFunc) CountTokens(text string) int {
	return f(text)
}

// TiktokenTokenizer counts tokens with an OpenAI BPE encoding. It is safe
// for concurrent use: encoding only reads the loaded ranks.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding. The BPE ranks are
// downloaded on first use and cached by tiktoken-go under
// TIKTOKEN_CACHE_DIR when that variable is set.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer encoding %s: %w", encoding, err)
	}

	return &TiktokenTokenizer{enc: enc}, nil
}

// CountTokens returns the number of BPE tokens in text. Special-token
// markers are encoded as ordinary text.
func (t *TiktokenTokenizer) CountTokens(text string) int {
	return len(t.enc.EncodeOrdinary(text))
}
