package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/nao1215/sitecorpus/internal/chunker"
	"github.com/nao1215/sitecorpus/internal/corpus"
	"github.com/nao1215/sitecorpus/internal/crawler"
	"github.com/nao1215/sitecorpus/internal/model"
)

// Step names.
const (
	StepCrawl    = "crawl"
	StepCollate  = "collate"
	StepTokenize = "tokenize"
)

// Settings are shared by every step.
type Settings struct {
	// Layout locates the artifacts.
	Layout corpus.Layout

	// Rebuild regenerates outputs that already exist.
	Rebuild bool

	// Logger receives step diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (s Settings) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// domainResetter is implemented by recorders that can forget a domain.
type domainResetter interface {
	DeleteDomain(ctx context.Context, domain string) (int64, error)
}

// CrawlStep crawls the site into one text file per page.
type CrawlStep struct {
	settings   Settings
	fetcher    crawler.Fetcher
	recorder   crawler.Recorder
	spiderOpts []crawler.SpiderOption
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithRecorder registers a Recorder, typically the visit ledger.
// On rebuild, a recorder that can delete a domain's rows is cleared first.
func WithRecorder(r crawler.Recorder) CrawlStepOption {
	return func(s *CrawlStep) {
		s.recorder = r
	}
}

// WithSpiderOptions passes options through to the Spider.
func WithSpiderOptions(opts ...crawler.SpiderOption) CrawlStepOption {
	return func(s *CrawlStep) {
		s.spiderOpts = append(s.spiderOpts, opts...)
	}
}

// NewCrawlStep creates a crawl step fetching with fetcher.
func NewCrawlStep(settings Settings, fetcher crawler.Fetcher, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		settings: settings,
		fetcher:  fetcher,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do crawls run.Seed into the domain's text directory. An existing
// directory means an earlier crawl, possibly interrupted; without rebuild
// its pages are kept as they are.
func (s *CrawlStep) Do(ctx context.Context, run *model.Run) error {
	logger := s.settings.logger()
	textDir := s.settings.Layout.TextDir(run.Domain)

	if exists(textDir) {
		if !s.settings.Rebuild {
			return ErrUpToDate
		}
		if err := os.RemoveAll(textDir); err != nil {
			return fmt.Errorf("failed to clear %s: %w", textDir, err)
		}
	}

	if s.settings.Rebuild {
		if r, ok := s.recorder.(domainResetter); ok {
			n, err := r.DeleteDomain(ctx, run.Domain)
			if err != nil {
				logger.Warn("failed to reset ledger", "domain", run.Domain, "error", err)
			} else {
				logger.Debug("reset ledger", "domain", run.Domain, "rows", n)
			}
		}
	}

	sink, err := crawler.NewDirSink(textDir)
	if err != nil {
		return err
	}

	opts := []crawler.SpiderOption{crawler.WithSpiderLogger(logger)}
	opts = append(opts, s.spiderOpts...)
	if s.recorder != nil {
		opts = append(opts, crawler.WithRecorder(s.recorder))
	}
	spider := crawler.NewSpider(s.fetcher, sink, opts...)

	logger.Info("scraping pages; an interrupted crawl keeps what it saved, use rebuild to start over",
		"domain", run.Domain,
		"dir", textDir,
	)

	result, err := spider.Crawl(ctx, run.Seed)
	if result != nil {
		run.Crawl = &model.CrawlStats{
			Visited:         len(result.Visited),
			Fetched:         result.Fetched,
			Failed:          result.Failed,
			Discovered:      result.Discovered,
			FailedPages:     result.FailedPages,
			JavaScriptPages: result.JavaScriptPages,
		}
	}
	return err
}

// CollateStep gathers the page texts into the processed title/text table.
type CollateStep struct {
	settings Settings
}

// NewCollateStep creates a collate step.
func NewCollateStep(settings Settings) *CollateStep {
	return &CollateStep{settings: settings}
}

// Name returns the step name.
func (s *CollateStep) Name() string {
	return StepCollate
}

// Do writes the processed table for run.Domain.
func (s *CollateStep) Do(_ context.Context, run *model.Run) error {
	out := s.settings.Layout.ProcessedPath(run.Domain)
	if !s.settings.Rebuild && exists(out) {
		return ErrUpToDate
	}

	textDir := s.settings.Layout.TextDir(run.Domain)
	records, err := corpus.Collate(textDir)
	if errors.Is(err, fs.ErrNotExist) {
		return &PrerequisiteError{
			Step:     s.Name(),
			Missing:  "page texts for " + run.Domain,
			RunFirst: StepCrawl,
		}
	}
	if err != nil {
		return err
	}

	if err := corpus.WriteRecordsFile(out, records); err != nil {
		return err
	}

	n := len(records)
	run.Records = &n
	s.settings.logger().Info("collated pages", "domain", run.Domain, "records", n, "path", out)
	return nil
}

// ChunkerLoader returns the chunker used by a TokenizeStep. Loading a
// tokenizer can be slow or need the network, so it is deferred until a
// step actually has work to do.
type ChunkerLoader func() (*chunker.Chunker, error)

// TokenizeStep chunks the processed table into the token table.
type TokenizeStep struct {
	settings    Settings
	load        ChunkerLoader
	concurrency int
}

// NewTokenizeStep creates a tokenize step chunking with c, up to
// concurrency records at a time.
func NewTokenizeStep(settings Settings, c *chunker.Chunker, concurrency int) *TokenizeStep {
	return NewLazyTokenizeStep(settings, func() (*chunker.Chunker, error) {
		return c, nil
	}, concurrency)
}

// NewLazyTokenizeStep is NewTokenizeStep with a chunker obtained from
// load the first time the step has records to chunk.
func NewLazyTokenizeStep(settings Settings, load ChunkerLoader, concurrency int) *TokenizeStep {
	return &TokenizeStep{
		settings:    settings,
		load:        load,
		concurrency: concurrency,
	}
}

// Name returns the step name.
func (s *TokenizeStep) Name() string {
	return StepTokenize
}

// Do writes the token table for run.Domain.
func (s *TokenizeStep) Do(ctx context.Context, run *model.Run) error {
	out := s.settings.Layout.TokensPath(run.Domain)
	if !s.settings.Rebuild && exists(out) {
		return ErrUpToDate
	}

	records, err := corpus.ReadRecordsFile(s.settings.Layout.ProcessedPath(run.Domain))
	if errors.Is(err, fs.ErrNotExist) {
		return &PrerequisiteError{
			Step:     s.Name(),
			Missing:  "processed corpus for " + run.Domain,
			RunFirst: StepCollate,
		}
	}
	if err != nil {
		return err
	}

	c, err := s.load()
	if err != nil {
		return err
	}

	chunks, stats, err := c.ChunkRecords(ctx, records, s.concurrency)
	if err != nil {
		return err
	}

	if err := corpus.WriteChunksFile(out, chunks); err != nil {
		return err
	}

	run.Chunking = &stats
	s.settings.logger().Info("tokenized corpus",
		"domain", run.Domain,
		"records", stats.Records,
		"chunks", stats.Chunks,
		"tokens", stats.Tokens,
		"maxTokens", c.MaxTokens(),
		"droppedSentences", stats.DroppedSentences,
		"path", out,
	)
	return nil
}
