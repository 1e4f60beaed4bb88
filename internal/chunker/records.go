package chunker

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitecorpus/internal/model"
)

// ChunkRecords chunks every record and concatenates the results in record
// order. Up to concurrency records are processed at once; the output is
// identical to a sequential run. Records with empty text are skipped.
//
// The returned error is non-nil only when ctx is cancelled.
func (c *Chunker) ChunkRecords(ctx context.Context, records []model.Record, concurrency int) ([]model.Chunk, model.ChunkStats, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	type rowResult struct {
		chunks  []model.Chunk
		dropped int
		outcome outcome
	}
	rows := make([]rowResult, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, record := range records {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			chunks, dropped, out := c.chunk(record.Text)
			rows[i] = rowResult{chunks: chunks, dropped: dropped, outcome: out}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, model.ChunkStats{}, err
	}

	stats := model.ChunkStats{Records: len(records)}
	all := make([]model.Chunk, 0, len(records))
	for _, row := range rows {
		switch row.outcome {
		case outcomeSkipped:
			stats.Skipped++
		case outcomePassedThrough:
			stats.PassedThrough++
		case outcomeSplit:
			stats.Split++
		}
		stats.DroppedSentences += row.dropped
		for _, ch := range row.chunks {
			stats.Tokens += ch.Tokens
		}
		all = append(all, row.chunks...)
	}
	stats.Chunks = len(all)

	return all, stats, nil
}
