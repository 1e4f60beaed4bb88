package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/sitecorpus/internal/crawler"
	"github.com/nao1215/sitecorpus/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) *Pipeline { return New() })
		if bp.concurrency != DefaultBatchConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultBatchConcurrency, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) *Pipeline { return New() }, WithConcurrency(5))
		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) *Pipeline { return New() }, WithConcurrency(0))
		if bp.concurrency != DefaultBatchConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultBatchConcurrency, bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("builds every valid site once", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		built := make(map[string]int)
		factory := func(string) *Pipeline {
			p := New(WithLogger(discardLogger()))
			p.AddStep(&mockStep{name: "record", doFunc: func(_ context.Context, run *model.Run) error {
				mu.Lock()
				built[run.Domain]++
				mu.Unlock()
				return nil
			}})
			return p
		}

		seeds := []string{
			"https://a.example/",
			"ftp://bad.example/",
			"https://b.example/docs",
			"https://a.example/other",
		}
		bp := NewBatchProcessor(factory, WithConcurrency(2), WithBatchLogger(discardLogger()))

		runs, err := bp.ProcessBatch(context.Background(), seeds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != len(seeds) {
			t.Fatalf("expected %d runs, got %d", len(seeds), len(runs))
		}

		if built["a.example"] != 1 || built["b.example"] != 1 || len(built) != 2 {
			t.Errorf("unexpected builds %v", built)
		}
		if runs[0].Domain != "a.example" || runs[2].Domain != "b.example" {
			t.Errorf("runs out of input order: %s, %s", runs[0].Domain, runs[2].Domain)
		}
		if !errors.Is(runs[1].Err, crawler.ErrInvalidSeed) {
			t.Errorf("expected ErrInvalidSeed, got %v", runs[1].Err)
		}
		if !errors.Is(runs[3].Err, ErrDuplicateSite) {
			t.Errorf("expected ErrDuplicateSite, got %v", runs[3].Err)
		}
	})

	t.Run("failed site does not stop others", func(t *testing.T) {
		t.Parallel()

		var ok atomic.Int32
		factory := func(string) *Pipeline {
			p := New(WithLogger(discardLogger()))
			p.AddStep(&mockStep{name: "maybe-fail", doFunc: func(_ context.Context, run *model.Run) error {
				if run.Domain == "down.example" {
					return errors.New("boom")
				}
				ok.Add(1)
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, WithBatchLogger(discardLogger()))
		runs, err := bp.ProcessBatch(context.Background(), []string{"https://down.example/", "https://up.example/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok.Load() != 1 {
			t.Errorf("expected one successful site, got %d", ok.Load())
		}
		if !runs[0].Failed() || runs[1].Failed() {
			t.Errorf("unexpected failure flags: %v, %v", runs[0].Failed(), runs[1].Failed())
		}
	})

	t.Run("factory receives the site domain", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var domains []string
		factory := func(domain string) *Pipeline {
			mu.Lock()
			domains = append(domains, domain)
			mu.Unlock()
			return New(WithLogger(discardLogger()))
		}

		bp := NewBatchProcessor(factory, WithBatchLogger(discardLogger()))
		if _, err := bp.ProcessBatch(context.Background(), []string{"https://docs.example:8080/start"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(domains) != 1 || domains[0] != "docs.example:8080" {
			t.Errorf("expected [docs.example:8080], got %v", domains)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		bp := NewBatchProcessor(func(string) *Pipeline {
			p := New(WithLogger(discardLogger()))
			p.AddStep(step)
			return p
		}, WithBatchLogger(discardLogger()))

		runs, err := bp.ProcessBatch(ctx, []string{"https://a.example/"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if !runs[0].Cancelled {
			t.Error("expected run to be cancelled")
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
	})
}
