package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitecorpus"

	// DefaultOutputDir is the root of the text and processed trees.
	DefaultOutputDir = "output"

	// DefaultUserAgent is sent with every request. Some sites reject the
	// Go default agent, so a short neutral value is used instead.
	DefaultUserAgent = "XY"

	// DefaultRequestTimeout bounds a single page fetch. A timeout counts
	// as a failed fetch, not a crawl error.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultMaxTokens is the chunk token budget.
	DefaultMaxTokens = 500

	// DefaultEncoding is the tiktoken encoding used for counting.
	DefaultEncoding = "cl100k_base"

	// DefaultTailPolicy flushes the last partial chunk of a record.
	DefaultTailPolicy = "flush"

	// DefaultConcurrency is the number of records chunked in parallel.
	DefaultConcurrency = 4
)

// Config holds all options for a sitecorpus run. It is built from
// defaults, the config file and CLI flags, then passed down explicitly.
type Config struct {
	// Target is the seed URL. Its host names the output artifacts.
	Target string

	// OutputDir is the root directory for page texts and tables.
	OutputDir string

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// RequestTimeout bounds each fetch. Zero uses the client default.
	RequestTimeout time.Duration

	// DomainRestriction keeps the crawl on the seed's exact host.
	DomainRestriction bool

	// MustInclude, when non-empty, only follows links containing it.
	MustInclude string

	// Rebuild regenerates artifacts that already exist. When false, a
	// step whose output is present does nothing.
	Rebuild bool

	// MaxTokens is the chunk token budget.
	MaxTokens int

	// Encoding is the tiktoken encoding name.
	Encoding string

	// TailPolicy decides what happens to the trailing partial chunk:
	// "flush" emits it, "drop" discards it.
	TailPolicy string

	// KeepEmptyChunks emits a lone "." when a flush has no sentences.
	// Together with TailPolicy "drop" it reproduces older corpora exactly.
	KeepEmptyChunks bool

	// Concurrency is the number of records chunked in parallel.
	Concurrency int

	// Ledger enables the SQLite visit ledger.
	Ledger bool

	// LedgerDir holds the ledger database.
	// Defaults to the XDG data directory (~/.local/share/sitecorpus on Linux).
	LedgerDir string

	// ReportFile, when set, receives a Markdown run summary.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit config file. When empty, .sitecorpus
	// is searched in the current directory and then the home directory.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputDir:         DefaultOutputDir,
		UserAgent:         DefaultUserAgent,
		RequestTimeout:    DefaultRequestTimeout,
		DomainRestriction: true,
		MaxTokens:         DefaultMaxTokens,
		Encoding:          DefaultEncoding,
		TailPolicy:        DefaultTailPolicy,
		Concurrency:       DefaultConcurrency,
		Ledger:            true,
		LedgerDir:         XDGDataDir(),
	}
}

// ApplySite overlays the non-zero fields of sc onto c.
func (c *Config) ApplySite(sc SiteConfig) {
	if sc.MustInclude != "" {
		c.MustInclude = sc.MustInclude
	}
	if sc.DomainRestriction != nil {
		c.DomainRestriction = *sc.DomainRestriction
	}
	if sc.MaxTokens != 0 {
		c.MaxTokens = sc.MaxTokens
	}
	if sc.UserAgent != "" {
		c.UserAgent = sc.UserAgent
	}
}

// XDGDataDir returns the XDG data directory for sitecorpus.
// On Linux: ~/.local/share/sitecorpus
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitecorpus.
// On Linux: ~/.config/sitecorpus
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}
	if !isSeedURL(c.Target) {
		return ErrInvalidSeedURL
	}
	return c.ValidateOptions()
}

// ValidateOptions checks everything except the target. Steps that work
// from existing artifacts only need a domain, not a seed URL.
func (c *Config) ValidateOptions() error {
	if c.RequestTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxTokens <= 0 {
		return ErrInvalidMaxTokens
	}
	switch strings.ToLower(strings.TrimSpace(c.TailPolicy)) {
	case "", "flush", "drop":
	default:
		return ErrInvalidTailPolicy
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

func isSeedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
