package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitecorpus/internal/model"
)

// SimpleWriter outputs a plain text summary for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists failed and JavaScript-only URLs.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the URL listings.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one block per run.
func (w *SimpleWriter) Write(runs ...*model.Run) (int, error) {
	var sb strings.Builder
	for _, run := range runs {
		w.writeRun(&sb, run)
	}
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeRun(sb *strings.Builder, run *model.Run) {
	title := "SITECORPUS: " + runName(run)

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:     %s\n", run.Seed)
	fmt.Fprintf(sb, "Status:   %s\n", statusText(run))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(sb, "Elapsed:  %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}

	if len(run.Steps) > 0 {
		parts := make([]string, len(run.Steps))
		for i, s := range run.Steps {
			parts[i] = s.Name + " " + stepResult(s)
		}
		fmt.Fprintf(sb, "Steps:    %s\n", strings.Join(parts, ", "))
	}

	if c := run.Crawl; c != nil {
		fmt.Fprintf(sb, "Pages:    %d visited, %d fetched, %d failed, %d discovered\n",
			c.Visited, c.Fetched, c.Failed, c.Discovered)
		if len(c.JavaScriptPages) > 0 {
			fmt.Fprintf(sb, "          %d page(s) only served a JavaScript placeholder\n", len(c.JavaScriptPages))
		}
	}
	if run.Records != nil {
		fmt.Fprintf(sb, "Records:  %d\n", *run.Records)
	}
	if cs := run.Chunking; cs != nil {
		fmt.Fprintf(sb, "Chunks:   %d (%d tokens, %d split, %d kept whole, %d empty)\n",
			cs.Chunks, cs.Tokens, cs.Split, cs.PassedThrough, cs.Skipped)
		if cs.DroppedSentences > 0 {
			fmt.Fprintf(sb, "          %d sentence(s) over the token budget were dropped\n", cs.DroppedSentences)
		}
	}

	if w.verbose && run.Crawl != nil {
		w.writeURLs(sb, "Failed pages", run.Crawl.FailedPages)
		w.writeURLs(sb, "JavaScript pages", run.Crawl.JavaScriptPages)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeURLs(sb *strings.Builder, label string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", label)
	for _, u := range urls {
		fmt.Fprintf(sb, "  - %s\n", u)
	}
}
