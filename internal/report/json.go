package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitecorpus/internal/model"
)

// JSONWriter outputs reports as JSON. encoding/json covers this; the
// document is small and written once per invocation.
type JSONWriter struct {
	baseWriter

	version string

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that stamps version into the output.
func NewJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document JSONWriter emits.
type JSONReport struct {
	// Version is the sitecorpus version that produced the runs.
	Version string `json:"version"`

	Runs []JSONRun `json:"runs"`
}

// JSONRun adds the rendered status and error to a Run.
type JSONRun struct {
	*model.Run

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Write outputs runs wrapped in a JSONReport.
func (w *JSONWriter) Write(runs ...*model.Run) (int, error) {
	doc := JSONReport{
		Version: w.version,
		Runs:    make([]JSONRun, len(runs)),
	}
	for i, run := range runs {
		doc.Runs[i] = JSONRun{Run: run, Status: statusText(run)}
		if run.Err != nil {
			doc.Runs[i].Error = run.Err.Error()
		}
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
