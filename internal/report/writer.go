package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/sitecorpus/internal/model"
)

// Writer outputs run reports.
type Writer interface {
	// Write renders runs and returns the number of bytes written.
	Write(runs ...*model.Run) (int, error)
}

// MultiWriter writes to multiple Writers, e.g. terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs runs to every Writer and stops on the first error.
func (m *MultiWriter) Write(runs ...*model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(runs...)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// NewFileWriter picks a writer for a report file by extension: .json
// gives JSON, anything else Markdown.
func NewFileWriter(path string, output io.Writer, version string) Writer {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONWriter(output, version, WithPrettyPrint())
	}
	return NewMarkdownWriter(output)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// runName is the domain, or the seed when it has none.
func runName(run *model.Run) string {
	if run.Domain == "" {
		return run.Seed
	}
	return run.Domain
}

// statusText is the one-line status of a run.
func statusText(run *model.Run) string {
	switch {
	case run.Cancelled:
		return "Cancelled (partial results)"
	case run.Err != nil:
		return "Error - " + run.Err.Error()
	case run.Failed():
		return "Error - " + firstStepError(run)
	case allSkipped(run):
		return "Up to date"
	default:
		return "Complete"
	}
}

func firstStepError(run *model.Run) string {
	for _, s := range run.Steps {
		if s.Error != "" {
			return s.Name + ": " + s.Error
		}
	}
	return ""
}

func allSkipped(run *model.Run) bool {
	if len(run.Steps) == 0 {
		return false
	}
	for _, s := range run.Steps {
		if !s.Skipped {
			return false
		}
	}
	return true
}

func stepResult(s model.StepOutcome) string {
	switch {
	case s.Error != "":
		return "failed"
	case s.Skipped:
		return "skipped (output exists)"
	default:
		return "ok"
	}
}

// truncateList returns at most limit items plus a count of the rest.
func truncateList(items []string, limit int) ([]string, int) {
	if len(items) <= limit {
		return items, 0
	}
	return items[:limit], len(items) - limit
}
