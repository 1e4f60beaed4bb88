package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitecorpus/internal/model"
)

// PageSink persists the text of visited pages.
type PageSink interface {
	WritePage(ctx context.Context, page *model.Page) error
}

// Recorder receives every visited page after it has been written.
// It is used for bookkeeping such as the crawl ledger.
type Recorder interface {
	RecordPage(ctx context.Context, page *model.Page) error
}

// DirSink writes each page to <dir>/<page.Filename>. Files are created
// with truncation, so a re-run overwrites partial files from an earlier
// interrupted crawl.
type DirSink struct {
	dir string
}

// NewDirSink creates the directory if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create text directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// WritePage writes page.Text to its file. Failed pages produce an empty file.
func (s *DirSink) WritePage(_ context.Context, page *model.Page) error {
	path := filepath.Join(s.dir, page.Filename)
	if err := os.WriteFile(path, []byte(page.Text), 0600); err != nil {
		return fmt.Errorf("failed to write page %s: %w", page.URL, err)
	}
	return nil
}
