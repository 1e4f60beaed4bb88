package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"
	"github.com/nao1215/sitecorpus/internal/crawler"
	"github.com/nao1215/sitecorpus/internal/log"
	"github.com/nao1215/sitecorpus/internal/model"
)

// progress animates a spinner with the number of pages crawled so far.
type progress struct {
	spinner *spinner.Spinner
	pages   atomic.Int64
}

// newProgress returns nil unless w is a file; verbose logging shares the
// same stream, so the spinner is off in that mode too. The spinner itself
// stays quiet when the terminal is not interactive.
func newProgress(w io.Writer, verbose bool) *progress {
	f, ok := w.(*os.File)
	if !ok || verbose {
		return nil
	}
	return newSpinnerProgress(f)
}

func newSpinnerProgress(w io.Writer) *progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(w),
		spinner.WithHiddenCursor(true),
	)
	s.Suffix = " crawling"
	return &progress{spinner: s}
}

func (p *progress) start() {
	if p != nil {
		p.spinner.Start()
	}
}

func (p *progress) stop() {
	if p != nil {
		p.spinner.Stop()
	}
}

func (p *progress) observe(page *model.Page) {
	n := p.pages.Add(1)
	p.spinner.Lock()
	p.spinner.Suffix = fmt.Sprintf(" %d pages crawled, last %s", n, log.RedactURL(page.URL))
	p.spinner.Unlock()
}

// wrap returns a Recorder that updates the spinner and then forwards to
// next, which may be nil.
func (p *progress) wrap(next crawler.Recorder) crawler.Recorder {
	return &progressRecorder{progress: p, next: next}
}

// progressRecorder also forwards domain resets so a wrapped ledger is
// still cleared on rebuild.
type progressRecorder struct {
	progress *progress
	next     crawler.Recorder
}

func (r *progressRecorder) RecordPage(ctx context.Context, page *model.Page) error {
	r.progress.observe(page)
	if r.next == nil {
		return nil
	}
	return r.next.RecordPage(ctx, page)
}

func (r *progressRecorder) DeleteDomain(ctx context.Context, domain string) (int64, error) {
	resetter, ok := r.next.(interface {
		DeleteDomain(ctx context.Context, domain string) (int64, error)
	})
	if !ok {
		return 0, nil
	}
	return resetter.DeleteDomain(ctx, domain)
}
