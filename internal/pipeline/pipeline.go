package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/sitecorpus/internal/model"
)

// Step is one stage of a corpus build.
type Step interface {
	// Do executes the step and records its results in run.
	// Returning ErrUpToDate marks the step as skipped.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging and reports.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps executing after a failed step.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run later steps after a
// failure. Later steps usually fail on the missing artifact anyway, so
// the default is to stop.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step; a step in progress handles ctx itself.
//
// The returned error is the first step failure unless continueOnError is
// set, in which case failures are only recorded in run.Steps.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	defer func() { run.FinishedAt = time.Now() }()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			run.Cancelled = true
			run.Err = ctx.Err()
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"domain", run.Domain,
		)

		start := time.Now()
		err := step.Do(ctx, run)
		outcome := model.StepOutcome{Name: step.Name(), Duration: time.Since(start)}

		switch {
		case err == nil:
			p.logger.Debug("step completed",
				"step", step.Name(),
				"domain", run.Domain,
				"elapsed", outcome.Duration,
			)
		case errors.Is(err, ErrUpToDate):
			outcome.Skipped = true
			p.logger.Info("output exists, skipping step",
				"step", step.Name(),
				"domain", run.Domain,
			)
		default:
			outcome.Error = err.Error()
			run.Steps = append(run.Steps, outcome)

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				run.Cancelled = true
			}
			p.logger.Error("step failed",
				"step", step.Name(),
				"domain", run.Domain,
				"error", err,
			)

			if !p.continueOnError {
				run.Err = err
				return err
			}
			continue
		}

		run.Steps = append(run.Steps, outcome)
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
