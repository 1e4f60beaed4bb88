package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitecorpus/internal/model"
)

// FileName is the ledger database file name inside the ledger directory.
const FileName = "sitecorpus.db"

// Ledger stores per-URL visit outcomes in SQLite.
// It satisfies crawler.Recorder.
type Ledger struct {
	db     *sql.DB
	dbPath string
}

// Options configures Ledger behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default ledger options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the ledger inside dir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dir string, opts Options) (*Ledger, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("ledger not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check ledger path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Ledger{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		domain TEXT NOT NULL,
		filename TEXT NOT NULL,
		status TEXT NOT NULL,
		status_code INTEGER,
		error TEXT,
		bytes INTEGER DEFAULT 0,
		requires_js INTEGER DEFAULT 0,
		content_hash TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_visits_domain ON visits(domain);
	CREATE INDEX IF NOT EXISTS idx_visits_status ON visits(status);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// Visit is a stored visit outcome.
type Visit struct {
	ID                 int64
	URL                string
	Domain             string
	Filename           string
	Status             model.PageStatus
	StatusCode         int
	Error              string
	Bytes              int
	RequiresJavaScript bool
	ContentHash        string
	Timestamp          time.Time
}

// VisitCounts summarizes visits for a domain.
type VisitCounts struct {
	Fetched int
	Failed  int
}

// Total returns the number of visited URLs.
func (c VisitCounts) Total() int {
	return c.Fetched + c.Failed
}

// RecordPage upserts the visit outcome of page, filling page.Hash if it
// is unset. A revisit of the same URL replaces the previous row.
func (l *Ledger) RecordPage(ctx context.Context, page *model.Page) error {
	if page.Hash == "" {
		page.ComputeHash()
	}

	query := `
	INSERT INTO visits (url, domain, filename, status, status_code, error, bytes, requires_js, content_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		domain = excluded.domain,
		filename = excluded.filename,
		status = excluded.status,
		status_code = excluded.status_code,
		error = excluded.error,
		bytes = excluded.bytes,
		requires_js = excluded.requires_js,
		content_hash = excluded.content_hash,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := l.db.ExecContext(ctx, query,
		page.URL,
		page.Domain,
		page.Filename,
		string(page.Status),
		page.StatusCode,
		page.Error,
		len(page.Text),
		page.RequiresJavaScript,
		page.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

const visitColumns = `id, url, domain, filename, status, status_code, error, bytes, requires_js, content_hash, timestamp`

// GetVisit returns the visit for url, or nil if it was never recorded.
func (l *Ledger) GetVisit(ctx context.Context, url string) (*Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE url = ?`

	v, err := scanVisit(l.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return v, nil
}

// ListVisits returns every visit recorded for domain ordered by URL.
func (l *Ledger) ListVisits(ctx context.Context, domain string) ([]*Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE domain = ? ORDER BY url`
	return l.queryVisits(ctx, query, domain)
}

// FailedVisits returns the visits for domain whose fetch failed.
func (l *Ledger) FailedVisits(ctx context.Context, domain string) ([]*Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE domain = ? AND status = ? ORDER BY url`
	return l.queryVisits(ctx, query, domain, string(model.PageStatusFailed))
}

// CountVisits returns fetched and failed counts for domain.
func (l *Ledger) CountVisits(ctx context.Context, domain string) (VisitCounts, error) {
	query := `SELECT status, COUNT(*) FROM visits WHERE domain = ? GROUP BY status`

	rows, err := l.db.QueryContext(ctx, query, domain)
	if err != nil {
		return VisitCounts{}, fmt.Errorf("failed to count visits: %w", err)
	}
	defer rows.Close()

	var counts VisitCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return VisitCounts{}, fmt.Errorf("failed to scan visit count: %w", err)
		}
		switch model.PageStatus(status) {
		case model.PageStatusFetched:
			counts.Fetched = n
		case model.PageStatusFailed:
			counts.Failed = n
		}
	}
	return counts, rows.Err()
}

// DeleteDomain removes every visit for domain. A rebuild starts from an
// empty ledger for the site.
func (l *Ledger) DeleteDomain(ctx context.Context, domain string) (int64, error) {
	result, err := l.db.ExecContext(ctx, `DELETE FROM visits WHERE domain = ?`, domain)
	if err != nil {
		return 0, fmt.Errorf("failed to delete visits: %w", err)
	}
	return result.RowsAffected()
}

func (l *Ledger) queryVisits(ctx context.Context, query string, args ...any) ([]*Visit, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*Visit, error) {
	var v Visit
	var status string
	var errText, hash sql.NullString
	var timestamp string

	if err := row.Scan(
		&v.ID,
		&v.URL,
		&v.Domain,
		&v.Filename,
		&status,
		&v.StatusCode,
		&errText,
		&v.Bytes,
		&v.RequiresJavaScript,
		&hash,
		&timestamp,
	); err != nil {
		return nil, err
	}

	v.Status = model.PageStatus(status)
	v.Error = errText.String
	v.ContentHash = hash.String
	v.Timestamp = parseTimestamp(timestamp)
	return &v, nil
}

// timestampFormats lists the layouts SQLite may return for DATETIME columns.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
