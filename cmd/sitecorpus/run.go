package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/nao1215/sitecorpus/internal/chunker"
	"github.com/nao1215/sitecorpus/internal/config"
	"github.com/nao1215/sitecorpus/internal/corpus"
	"github.com/nao1215/sitecorpus/internal/crawler"
	"github.com/nao1215/sitecorpus/internal/database"
	"github.com/nao1215/sitecorpus/internal/model"
	"github.com/nao1215/sitecorpus/internal/pipeline"
	"github.com/nao1215/sitecorpus/internal/report"
	"github.com/spf13/cobra"
)

// errSitesFailed is returned when at least one site could not be built.
var errSitesFailed = errors.New("site build failed")

// target is one site named on the command line.
type target struct {
	domain string
	seed   string
	cfg    *config.Config
}

// runner executes pipeline steps for the sites of one command.
type runner struct {
	env     env
	cmd     *cobra.Command
	steps   []string
	logger  *slog.Logger
	base    *config.Config
	targets []target
	byHost  map[string]*config.Config

	// tokenizer is loaded at most once per invocation.
	tokenizer func() (chunker.Tokenizer, error)

	// ledger is nil when disabled or when no step crawls.
	ledger *database.Ledger

	// progress is nil when stderr is not a file or logging is verbose.
	progress *progress
}

// newRunner resolves and validates every target before any work starts.
// needSeed requires URL arguments; steps that work from existing
// artifacts also accept a bare domain.
func newRunner(e env, cmd *cobra.Command, args []string, needSeed bool, steps ...string) (*runner, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	settings, err := newSiteSettings(cmd)
	if err != nil {
		return nil, err
	}

	base, err := settings.forSite("")
	if err != nil {
		return nil, err
	}

	r := &runner{
		env:    e,
		cmd:    cmd,
		steps:  steps,
		logger: logger,
		base:   base,
		byHost: make(map[string]*config.Config, len(args)),
	}

	for _, arg := range args {
		domain, seed, err := resolveTarget(arg)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}

		cfg, err := settings.forSite(domain)
		if err != nil {
			return nil, err
		}
		cfg.Target = seed

		if needSeed {
			err = cfg.Validate()
		} else {
			err = cfg.ValidateOptions()
		}
		if err != nil {
			return nil, fmt.Errorf("configuration error for %s: %w", arg, err)
		}

		r.targets = append(r.targets, target{domain: domain, seed: seed, cfg: cfg})
		if _, ok := r.byHost[domain]; !ok {
			r.byHost[domain] = cfg
		}
	}

	if r.hasStep(pipeline.StepCrawl) {
		r.progress = newProgress(cmd.ErrOrStderr(), base.Verbose)
	}

	r.tokenizer = sync.OnceValues(func() (chunker.Tokenizer, error) {
		r.logger.Debug("loading tokenizer", "encoding", r.base.Encoding)
		return r.env.loadTokenizer(r.base.Encoding)
	})

	return r, nil
}

func (r *runner) hasStep(name string) bool {
	for _, s := range r.steps {
		if s == name {
			return true
		}
	}
	return false
}

// openLedger opens the visit ledger when a crawl step will run.
func (r *runner) openLedger() error {
	if !r.base.Ledger || !r.hasStep(pipeline.StepCrawl) {
		return nil
	}

	ledger, err := database.Open(r.base.LedgerDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	r.ledger = ledger
	r.logger.Debug("ledger opened", "path", ledger.Path())
	return nil
}

func (r *runner) close() {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Close(); err != nil {
		r.logger.Error("failed to close ledger", "error", err)
	}
}

// newPipeline assembles the configured steps for one site.
func (r *runner) newPipeline(cfg *config.Config) *pipeline.Pipeline {
	settings := pipeline.Settings{
		Layout:  corpus.NewLayout(cfg.OutputDir),
		Rebuild: cfg.Rebuild,
		Logger:  r.logger,
	}

	p := pipeline.New(pipeline.WithLogger(r.logger))
	for _, name := range r.steps {
		switch name {
		case pipeline.StepCrawl:
			opts := []pipeline.CrawlStepOption{
				pipeline.WithSpiderOptions(
					crawler.WithDomainRestriction(cfg.DomainRestriction),
					crawler.WithMustInclude(cfg.MustInclude),
				),
			}
			var recorder crawler.Recorder
			if r.ledger != nil {
				recorder = r.ledger
			}
			if r.progress != nil {
				recorder = r.progress.wrap(recorder)
			}
			if recorder != nil {
				opts = append(opts, pipeline.WithRecorder(recorder))
			}
			p.AddStep(pipeline.NewCrawlStep(settings, r.env.newFetcher(cfg), opts...))
		case pipeline.StepCollate:
			p.AddStep(pipeline.NewCollateStep(settings))
		case pipeline.StepTokenize:
			p.AddStep(pipeline.NewLazyTokenizeStep(settings, r.chunkerLoader(cfg), cfg.Concurrency))
		}
	}
	return p
}

func (r *runner) chunkerLoader(cfg *config.Config) pipeline.ChunkerLoader {
	return func() (*chunker.Chunker, error) {
		tokenizer, err := r.tokenizer()
		if err != nil {
			return nil, err
		}
		tail, err := chunker.ParseTailPolicy(cfg.TailPolicy)
		if err != nil {
			return nil, err
		}
		return chunker.New(tokenizer,
			chunker.WithMaxTokens(cfg.MaxTokens),
			chunker.WithTailPolicy(tail),
			chunker.WithKeepEmptyChunks(cfg.KeepEmptyChunks),
		), nil
	}
}

// run builds the single target in the foreground.
func (r *runner) run(ctx context.Context) error {
	if err := r.openLedger(); err != nil {
		return err
	}
	defer r.close()

	t := r.targets[0]
	run := model.NewRun(t.domain, t.seed)
	r.progress.start()
	execErr := r.newPipeline(t.cfg).Execute(ctx, run)
	r.progress.stop()

	if err := r.writeReport(run); err != nil {
		return err
	}
	if execErr != nil {
		return fmt.Errorf("%s: %w", t.domain, execErr)
	}
	return nil
}

// runBatch builds every target, up to concurrency sites at a time.
func (r *runner) runBatch(ctx context.Context, concurrency int) error {
	if err := r.openLedger(); err != nil {
		return err
	}
	defer r.close()

	seeds := make([]string, 0, len(r.targets))
	for _, t := range r.targets {
		seeds = append(seeds, t.seed)
	}

	bp := pipeline.NewBatchProcessor(
		func(domain string) *pipeline.Pipeline {
			cfg, ok := r.byHost[domain]
			if !ok {
				cfg = r.base
			}
			return r.newPipeline(cfg)
		},
		pipeline.WithConcurrency(concurrency),
		pipeline.WithBatchLogger(r.logger),
	)

	r.progress.start()
	runs, batchErr := bp.ProcessBatch(ctx, seeds)
	r.progress.stop()

	if err := r.writeReport(runs...); err != nil {
		return err
	}
	if batchErr != nil {
		return batchErr
	}

	failed := 0
	for _, run := range runs {
		if run.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d sites", errSitesFailed, failed, len(runs))
	}
	return nil
}

// writeReport prints the summary and writes the report file if requested.
func (r *runner) writeReport(runs ...*model.Run) error {
	writers := []report.Writer{
		report.NewSimpleWriter(r.cmd.OutOrStdout(), report.WithVerbose(r.base.Verbose)),
	}

	if r.base.ReportFile != "" {
		f, err := createReportFile(r.base.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		writers = append(writers, report.NewFileWriter(r.base.ReportFile, f, getVersion()))
	}

	if _, err := report.NewMultiWriter(writers...).Write(runs...); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// createReportFile creates path and its parent directories. Reports list
// crawled URLs, so the file is only readable by its owner.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
