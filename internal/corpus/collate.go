package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/sitecorpus/internal/model"
)

// Collate reads every page text file in dir and returns one record per
// file, ordered by file name. The title is the file name without its
// extension and the text has its newlines flattened by RemoveNewlines.
func Collate(dir string) ([]model.Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	records := make([]model.Record, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // dir comes from the output layout
		if err != nil {
			return nil, fmt.Errorf("failed to read page text %s: %w", name, err)
		}
		records = append(records, model.Record{
			Title: strings.TrimSuffix(name, ".txt"),
			Text:  RemoveNewlines(string(data)),
		})
	}

	return records, nil
}

// RemoveNewlines replaces line breaks, including escaped "\n" sequences,
// with spaces and folds the resulting double spaces.
func RemoveNewlines(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, `\n`, " ")
	s = strings.ReplaceAll(s, "  ", " ")
	s = strings.ReplaceAll(s, "  ", " ")
	return s
}
