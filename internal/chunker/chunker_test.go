package chunker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/sitecorpus/internal/model"
)

// wordTokenizer counts whitespace-separated words, so " a b" has 2 tokens.
var wordTokenizer = TokenizerFunc(func(text string) int {
	return len(strings.Fields(text))
})

// recordingTokenizer remembers every input it was asked to count.
type recordingTokenizer struct {
	mu     sync.Mutex
	inputs []string
}

func (r *recordingTokenizer) CountTokens(text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, text)
	return len(strings.Fields(text))
}

func TestSentenceSegmenter(t *testing.T) {
	t.Parallel()

	t.Run("splits on period followed by space", func(t *testing.T) {
		t.Parallel()

		got := NewSentenceSegmenter().Segment("One. Two words. Three.")
		want := []string{"One", "Two words", "Three."}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("does not special-case abbreviations or numbers", func(t *testing.T) {
		t.Parallel()

		got := NewSentenceSegmenter().Segment("Pi is 3.14 roughly. Ask Dr. Who")
		want := []string{"Pi is 3.14 roughly", "Ask Dr", "Who"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestParseTailPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want TailPolicy
	}{
		{in: "", want: TailFlush},
		{in: "flush", want: TailFlush},
		{in: " DROP ", want: TailDrop},
	}
	for _, tt := range tests {
		got, err := ParseTailPolicy(tt.in)
		if err != nil {
			t.Errorf("ParseTailPolicy(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseTailPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseTailPolicy("keep"); !errors.Is(err, ErrUnknownTailPolicy) {
		t.Errorf("expected ErrUnknownTailPolicy, got %v", err)
	}
}

// TestSplit tests the greedy packing.
func TestSplit(t *testing.T) {
	t.Parallel()

	// Three sentences of 4 tokens each with a budget of 10: the first two
	// fit (5 + 5 = 10), the third overflows and starts a new chunk.
	const threeFours = "a b c d. e f g h. i j k l"

	t.Run("flush-before-overflow with tail dropped", func(t *testing.T) {
		t.Parallel()

		c := New(wordTokenizer, WithMaxTokens(10), WithTailPolicy(TailDrop))
		got := c.Split(threeFours)

		want := []string{"a b c d. e f g h."}
		if !reflect.DeepEqual(got.Chunks, want) {
			t.Errorf("got %q, want %q", got.Chunks, want)
		}
	})

	t.Run("flush-before-overflow with tail flushed", func(t *testing.T) {
		t.Parallel()

		c := New(wordTokenizer, WithMaxTokens(10), WithTailPolicy(TailFlush))
		got := c.Split(threeFours)

		want := []string{"a b c d. e f g h.", "i j k l."}
		if !reflect.DeepEqual(got.Chunks, want) {
			t.Errorf("got %q, want %q", got.Chunks, want)
		}
	})

	t.Run("default tail policy is flush", func(t *testing.T) {
		t.Parallel()

		got := New(wordTokenizer, WithMaxTokens(10)).Split(threeFours)
		if len(got.Chunks) != 2 {
			t.Errorf("expected 2 chunks, got %q", got.Chunks)
		}
	})

	t.Run("tail drop loses input that never overflows", func(t *testing.T) {
		t.Parallel()

		got := New(wordTokenizer, WithMaxTokens(10), WithTailPolicy(TailDrop)).Split("a b. c d")
		if len(got.Chunks) != 0 {
			t.Errorf("expected no chunks, got %q", got.Chunks)
		}
	})

	t.Run("oversized sentence is dropped entirely", func(t *testing.T) {
		t.Parallel()

		text := "a b. c d e f g h i. j k"
		got := New(wordTokenizer, WithMaxTokens(5)).Split(text)

		want := []string{"a b.", "j k."}
		if !reflect.DeepEqual(got.Chunks, want) {
			t.Errorf("got %q, want %q", got.Chunks, want)
		}
		if got.Dropped != 1 {
			t.Errorf("expected 1 dropped sentence, got %d", got.Dropped)
		}
		for _, ch := range got.Chunks {
			if strings.Contains(ch, "c d") || strings.Contains(ch, "h i") {
				t.Errorf("chunk %q contains part of the dropped sentence", ch)
			}
		}
	})

	t.Run("overflow with nothing pending emits a lone period only when kept", func(t *testing.T) {
		t.Parallel()

		text := "a b c d e f g. h"

		kept := New(wordTokenizer, WithMaxTokens(3), WithKeepEmptyChunks(true)).Split(text)
		if want := []string{".", "h."}; !reflect.DeepEqual(kept.Chunks, want) {
			t.Errorf("with empty chunks kept: got %q, want %q", kept.Chunks, want)
		}

		skipped := New(wordTokenizer, WithMaxTokens(3)).Split(text)
		if want := []string{"h."}; !reflect.DeepEqual(skipped.Chunks, want) {
			t.Errorf("with empty chunks skipped: got %q, want %q", skipped.Chunks, want)
		}
	})

	t.Run("text ending in the delimiter adds no empty sentence", func(t *testing.T) {
		t.Parallel()

		// A bare separator costs one token, as it does with a BPE encoding.
		spaceCosts := TokenizerFunc(func(text string) int {
			return max(len(strings.Fields(text)), 1)
		})

		c := New(spaceCosts, WithMaxTokens(10))

		appended := c.Split("a b c d e f g h i. j k. ")
		if want := []string{"a b c d e f g h i.", "j k."}; !reflect.DeepEqual(appended.Chunks, want) {
			t.Errorf("after a pending sentence: got %q, want %q", appended.Chunks, want)
		}

		alone := c.Split("a b c d e f g h i j k. ")
		if len(alone.Chunks) != 0 || alone.Dropped != 1 {
			t.Errorf("after a dropped sentence: got %q, %d dropped", alone.Chunks, alone.Dropped)
		}

		chunks, _ := c.Chunk("a b c d e f g h i. j k. ")
		want := []model.Chunk{{Text: "a b c d e f g h i.", Tokens: 9}, {Text: "j k.", Tokens: 2}}
		if !reflect.DeepEqual(chunks, want) {
			t.Errorf("Chunk() = %+v, want %+v", chunks, want)
		}
	})

	t.Run("empty fragments are kept with empty chunks", func(t *testing.T) {
		t.Parallel()

		got := New(wordTokenizer, WithMaxTokens(10), WithKeepEmptyChunks(true)).Split("a b. ")
		if want := []string{"a b. ."}; !reflect.DeepEqual(got.Chunks, want) {
			t.Errorf("got %q, want %q", got.Chunks, want)
		}
	})

	t.Run("sentences are measured with a leading space", func(t *testing.T) {
		t.Parallel()

		tok := &recordingTokenizer{}
		New(tok, WithMaxTokens(10)).Split("one. two")

		want := []string{" one", " two"}
		if !reflect.DeepEqual(tok.inputs, want) {
			t.Errorf("tokenizer inputs = %q, want %q", tok.inputs, want)
		}
	})

	t.Run("custom segmenter", func(t *testing.T) {
		t.Parallel()

		lines := SegmenterFunc(func(text string) []string {
			return strings.Split(text, "\n")
		})
		got := New(wordTokenizer, WithMaxTokens(3), WithSegmenter(lines)).Split("a b\nc d\ne")

		want := []string{"a b.", "c d.", "e."}
		if !reflect.DeepEqual(got.Chunks, want) {
			t.Errorf("got %q, want %q", got.Chunks, want)
		}
	})

	t.Run("no chunk exceeds the budget", func(t *testing.T) {
		t.Parallel()

		var sentences []string
		for i := 0; i < 200; i++ {
			words := make([]string, i%6+1)
			for j := range words {
				words[j] = fmt.Sprintf("w%d", j)
			}
			sentences = append(sentences, strings.Join(words, " "))
		}
		text := strings.Join(sentences, ". ")

		const budget = 12
		got := New(wordTokenizer, WithMaxTokens(budget)).Split(text)
		if len(got.Chunks) == 0 {
			t.Fatal("expected chunks")
		}
		for _, ch := range got.Chunks {
			if n := wordTokenizer.CountTokens(ch); n > budget {
				t.Errorf("chunk %q has %d tokens, budget %d", ch, n, budget)
			}
		}
	})
}

// TestChunk tests body-level chunking.
func TestChunk(t *testing.T) {
	t.Parallel()

	t.Run("empty text is skipped", func(t *testing.T) {
		t.Parallel()

		chunks, dropped := New(wordTokenizer).Chunk("")
		if chunks != nil || dropped != 0 {
			t.Errorf("expected nothing, got %v %d", chunks, dropped)
		}
	})

	t.Run("text within the budget passes through unmodified", func(t *testing.T) {
		t.Parallel()

		text := "Short. Still short. no trailing period"
		chunks, _ := New(wordTokenizer, WithMaxTokens(10)).Chunk(text)

		want := []model.Chunk{{Text: text, Tokens: 6}}
		if !reflect.DeepEqual(chunks, want) {
			t.Errorf("got %+v, want %+v", chunks, want)
		}
	})

	t.Run("long text is split and every chunk recounted", func(t *testing.T) {
		t.Parallel()

		chunks, _ := New(wordTokenizer, WithMaxTokens(10)).Chunk("a b c d. e f g h. i j k l")

		want := []model.Chunk{
			{Text: "a b c d. e f g h.", Tokens: 8},
			{Text: "i j k l.", Tokens: 4},
		}
		if !reflect.DeepEqual(chunks, want) {
			t.Errorf("got %+v, want %+v", chunks, want)
		}
	})

	t.Run("reports dropped sentences", func(t *testing.T) {
		t.Parallel()

		_, dropped := New(wordTokenizer, WithMaxTokens(3)).Chunk("a. b c d e. f")
		if dropped != 1 {
			t.Errorf("expected 1 dropped sentence, got %d", dropped)
		}
	})
}

// TestChunkRecords tests corpus-level chunking.
func TestChunkRecords(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		{Title: "empty", Text: ""},
		{Title: "short", Text: "fits easily"},
		{Title: "long", Text: "a b c d. e f g h. i j k l"},
		{Title: "oversized", Text: "x. y y y y y y y y y y y. z"},
		{Title: "short2", Text: "also fits"},
	}

	t.Run("concurrent output matches sequential output", func(t *testing.T) {
		t.Parallel()

		c := New(wordTokenizer, WithMaxTokens(10))

		seq, seqStats, err := c.ChunkRecords(context.Background(), records, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		par, parStats, err := c.ChunkRecords(context.Background(), records, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !reflect.DeepEqual(seq, par) {
			t.Errorf("concurrent output differs:\n seq=%+v\n par=%+v", seq, par)
		}
		if seqStats != parStats {
			t.Errorf("stats differ: %+v vs %+v", seqStats, parStats)
		}

		texts := make([]string, len(seq))
		for i, ch := range seq {
			texts[i] = ch.Text
		}
		want := []string{"fits easily", "a b c d. e f g h.", "i j k l.", "x.", "z.", "also fits"}
		if !reflect.DeepEqual(texts, want) {
			t.Errorf("got %q, want %q", texts, want)
		}
	})

	t.Run("collects statistics", func(t *testing.T) {
		t.Parallel()

		_, stats, err := New(wordTokenizer, WithMaxTokens(10)).ChunkRecords(context.Background(), records, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := model.ChunkStats{
			Records:          5,
			Skipped:          1,
			PassedThrough:    2,
			Split:            2,
			DroppedSentences: 1,
			Chunks:           6,
			Tokens:           2 + 8 + 4 + 1 + 1 + 2,
		}
		if stats != want {
			t.Errorf("got %+v, want %+v", stats, want)
		}
	})

	t.Run("cancelled context returns an error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := New(wordTokenizer).ChunkRecords(ctx, records, 2)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
