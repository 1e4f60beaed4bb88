package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nao1215/sitecorpus/internal/model"
)

// ErrMalformedTable is returned when a table has an unexpected shape.
var ErrMalformedTable = errors.New("malformed table")

// Column names of the interchange tables.
const (
	ColumnTitle  = "title"
	ColumnText   = "text"
	ColumnTokens = "n_tokens"
)

// ReadRecords reads a collated table. The header is used only to detect
// an index column: with three columns the first is the index and the
// others are title and text, with two columns they are title and text.
// Column names are otherwise ignored, matching positional renaming.
func ReadRecords(r io.Reader) ([]model.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}

	offset := 0
	switch len(header) {
	case 2:
	case 3:
		offset = 1
	default:
		return nil, fmt.Errorf("%w: expected 2 or 3 columns, got %d", ErrMalformedTable, len(header))
	}

	records := make([]model.Record, 0)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table row %d: %w", line, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d columns, header has %d", ErrMalformedTable, line, len(row), len(header))
		}
		records = append(records, model.Record{Title: row[offset], Text: row[offset+1]})
	}

	return records, nil
}

// WriteRecords writes a collated table with an index column.
func WriteRecords(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"", ColumnTitle, ColumnText}); err != nil {
		return err
	}
	for i, rec := range records {
		if err := cw.Write([]string{strconv.Itoa(i), rec.Title, rec.Text}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadChunks reads a chunk table written by WriteChunks.
func ReadChunks(r io.Reader) ([]model.Chunk, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}
	if len(header) != 3 || header[1] != ColumnText || header[2] != ColumnTokens {
		return nil, fmt.Errorf("%w: expected columns ,%s,%s", ErrMalformedTable, ColumnText, ColumnTokens)
	}

	chunks := make([]model.Chunk, 0)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table row %d: %w", line, err)
		}
		tokens, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d has invalid %s %q", ErrMalformedTable, line, ColumnTokens, row[2])
		}
		chunks = append(chunks, model.Chunk{Text: row[1], Tokens: tokens})
	}

	return chunks, nil
}

// WriteChunks writes a chunk table with an index column.
func WriteChunks(w io.Writer, chunks []model.Chunk) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"", ColumnText, ColumnTokens}); err != nil {
		return err
	}
	for i, ch := range chunks {
		if err := cw.Write([]string{strconv.Itoa(i), ch.Text, strconv.Itoa(ch.Tokens)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecordsFile opens path and reads a collated table from it.
// A missing file yields an error matching fs.ErrNotExist.
func ReadRecordsFile(path string) ([]model.Record, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the output layout
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadChunksFile opens path and reads a chunk table from it.
func ReadChunksFile(path string) ([]model.Chunk, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the output layout
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunks, err := ReadChunks(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chunks, nil
}

// WriteRecordsFile writes records to path, replacing any existing file.
func WriteRecordsFile(path string, records []model.Record) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteRecords(w, records)
	})
}

// WriteChunksFile writes chunks to path, replacing any existing file.
func WriteChunksFile(path string, chunks []model.Chunk) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteChunks(w, chunks)
	})
}

// writeFile truncates path and fills it. There is no rename step: an
// interrupted write leaves a partial file that the next run overwrites.
func writeFile(path string, fill func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path comes from the output layout
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := fill(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
