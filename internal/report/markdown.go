package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitecorpus/internal/model"
)

// maxListedURLs caps the URL lists of a report section.
const maxListedURLs = 50

// MarkdownWriter outputs reports in GitHub flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report. Several runs get an overview table first.
func (w *MarkdownWriter) Write(runs ...*model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Site Corpus Report")
	md.PlainText("")

	if len(runs) > 1 {
		w.writeOverview(md, runs)
	}
	for _, run := range runs {
		w.writeRun(md, run)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, runs []*model.Run) {
	md.H2("Sites")
	md.PlainText("")

	rows := make([][]string, len(runs))
	for i, run := range runs {
		fetched, failed := "-", "-"
		if run.Crawl != nil {
			fetched = strconv.Itoa(run.Crawl.Fetched)
			failed = strconv.Itoa(run.Crawl.Failed)
		}
		chunks, tokens := "-", "-"
		if run.Chunking != nil {
			chunks = strconv.Itoa(run.Chunking.Chunks)
			tokens = strconv.Itoa(run.Chunking.Tokens)
		}
		rows[i] = []string{"`" + runName(run) + "`", statusText(run), fetched, failed, chunks, tokens}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Site", "Status", "Fetched", "Failed", "Chunks", "Tokens"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRun(md *markdown.Markdown, run *model.Run) {
	md.H2(runName(run))
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + run.Seed + "`"},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if !run.FinishedAt.IsZero() {
		rows = append(rows, []string{"Elapsed", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()})
	}
	rows = append(rows, []string{"Status", statusText(run)})
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, run)
	w.writeSteps(md, run)
	w.writeCrawl(md, run)
	w.writeChunking(md, run)
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch {
	case run.Cancelled:
		md.Warningf("The build of %s was interrupted. Re-run to continue from the saved pages, or rebuild to start over.", runName(run))
	case run.Failed():
		md.Cautionf("The build of %s failed: %s", runName(run), statusText(run))
	case run.Crawl != nil && run.Crawl.Failed > 0:
		md.Importantf("%d page(s) could not be fetched and were saved empty.", run.Crawl.Failed)
	case run.Crawl != nil && len(run.Crawl.JavaScriptPages) > 0:
		md.Note("Some pages only served a JavaScript placeholder; their text is likely incomplete.")
	case allSkipped(run):
		md.Tip("Every artifact already existed. Use rebuild to regenerate them.")
	default:
		md.Tip("All pages were fetched and chunked.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, run *model.Run) {
	if len(run.Steps) == 0 {
		return
	}

	md.PlainText("### Steps")
	md.PlainText("")

	rows := make([][]string, len(run.Steps))
	for i, s := range run.Steps {
		detail := s.Error
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{s.Name, stepResult(s), s.Duration.Round(time.Millisecond).String(), detail}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Result", "Duration", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCrawl(md *markdown.Markdown, run *model.Run) {
	c := run.Crawl
	if c == nil {
		return
	}

	md.PlainText("### Crawl")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Visited", strconv.Itoa(c.Visited)},
			{"Fetched", strconv.Itoa(c.Fetched)},
			{"Failed", strconv.Itoa(c.Failed)},
			{"Discovered", strconv.Itoa(c.Discovered)},
			{"JavaScript placeholder", strconv.Itoa(len(c.JavaScriptPages))},
		},
	})
	md.PlainText("")

	if c.Visited > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Fetch Outcome"),
			piechart.WithShowData(true),
		)
		if ok := c.Fetched - len(c.JavaScriptPages); ok > 0 {
			chart.LabelAndIntValue("Fetched", uint64(ok))
		}
		if n := len(c.JavaScriptPages); n > 0 {
			chart.LabelAndIntValue("JavaScript placeholder", uint64(n))
		}
		if c.Failed > 0 {
			chart.LabelAndIntValue("Failed", uint64(c.Failed))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	w.writeURLList(md, "Failed pages", c.FailedPages)
	w.writeURLList(md, "JavaScript placeholder pages", c.JavaScriptPages)
}

func (w *MarkdownWriter) writeURLList(md *markdown.Markdown, label string, urls []string) {
	if len(urls) == 0 {
		return
	}

	shown, rest := truncateList(urls, maxListedURLs)
	items := make([]string, 0, len(shown)+1)
	for _, u := range shown {
		items = append(items, "`"+u+"`")
	}
	if rest > 0 {
		items = append(items, "... and "+strconv.Itoa(rest)+" more")
	}

	md.PlainText("#### " + label)
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeChunking(md *markdown.Markdown, run *model.Run) {
	if run.Records == nil && run.Chunking == nil {
		return
	}

	md.PlainText("### Corpus")
	md.PlainText("")

	rows := make([][]string, 0, 8)
	if run.Records != nil {
		rows = append(rows, []string{"Collated records", strconv.Itoa(*run.Records)})
	}
	if cs := run.Chunking; cs != nil {
		rows = append(rows,
			[]string{"Records chunked", strconv.Itoa(cs.Records)},
			[]string{"Kept whole", strconv.Itoa(cs.PassedThrough)},
			[]string{"Split", strconv.Itoa(cs.Split)},
			[]string{"Empty", strconv.Itoa(cs.Skipped)},
			[]string{"Dropped sentences", strconv.Itoa(cs.DroppedSentences)},
			[]string{"Chunks", strconv.Itoa(cs.Chunks)},
			[]string{"Tokens", strconv.Itoa(cs.Tokens)},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by sitecorpus on %s*", time.Now().Format("2006-01-02"))
}
