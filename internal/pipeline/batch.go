package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitecorpus/internal/crawler"
	"github.com/nao1215/sitecorpus/internal/model"
)

// DefaultBatchConcurrency is the number of sites built at once.
const DefaultBatchConcurrency = 1

// PipelineFactory builds the pipeline for one site. It receives the
// site's domain so per-site settings can be applied.
type PipelineFactory func(domain string) *Pipeline

// BatchProcessor builds several sites concurrently. Each site gets a
// fresh Pipeline from the factory so no step state is shared; the crawl
// of any single site stays sequential.
type BatchProcessor struct {
	pipelineFactory PipelineFactory
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sites built at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory PipelineFactory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch builds every seed and returns one Run per seed, in input
// order, including runs that failed. A failing site does not stop the
// others; the returned error is non-nil only when ctx ends the batch.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.Run, error) {
	bp.logger.Info("starting batch processing",
		"sites", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	runs := make([]*model.Run, len(seeds))
	seen := make(map[string]bool, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		domain, err := crawler.Domain(seed)
		run := model.NewRun(domain, seed)
		runs[i] = run
		if err != nil {
			run.Err = err
			run.FinishedAt = run.StartedAt
			bp.logger.Warn("skipping invalid seed", "seed", seed, "error", err)
			continue
		}
		// Two seeds on one host would write the same artifacts.
		if seen[domain] {
			run.Err = fmt.Errorf("%w: %s", ErrDuplicateSite, domain)
			run.FinishedAt = run.StartedAt
			bp.logger.Warn("skipping duplicate site", "seed", seed, "domain", domain)
			continue
		}
		seen[domain] = true

		g.Go(func() error {
			select {
			case <-gctx.Done():
				run.Cancelled = true
				run.Err = gctx.Err()
				return gctx.Err()
			default:
			}

			bp.logger.Info("building site",
				"domain", run.Domain,
				"index", i+1,
				"total", len(seeds),
			)

			if err := bp.pipelineFactory(run.Domain).Execute(gctx, run); err != nil {
				bp.logger.Warn("site build failed", "domain", run.Domain, "error", err)
				// Recorded in run; other sites continue.
				return nil
			}

			bp.logger.Info("site build completed", "domain", run.Domain)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"sites", len(seeds),
		"elapsed", time.Since(startTime),
	)

	if err == nil {
		err = ctx.Err()
	}
	return runs, err
}
