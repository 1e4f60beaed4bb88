package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/sitecorpus/internal/config"
	"github.com/nao1215/sitecorpus/internal/crawler"
	"github.com/nao1215/sitecorpus/internal/log"
	"github.com/spf13/cobra"
)

// Flag names.
const (
	flagVerbose   = "verbose"
	flagLogFormat = "log-format"

	flagConfig    = "config"
	flagOutputDir = "output-dir"
	flagRebuild   = "rebuild"
	flagReport    = "report"

	flagMustInclude         = "must-include"
	flagNoDomainRestriction = "no-domain-restriction"
	flagUserAgent           = "user-agent"
	flagTimeout             = "timeout"
	flagLedger              = "ledger"
	flagLedgerDir           = "ledger-dir"

	flagMaxTokens       = "max-tokens"
	flagTailPolicy      = "tail-policy"
	flagKeepEmptyChunks = "keep-empty-chunks"
	flagEncoding        = "encoding"
	flagConcurrency     = "concurrency"

	flagBatch = "batch"
)

// Log formats accepted by --log-format.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// errUnknownLogFormat is returned for a --log-format other than text or json.
var errUnknownLogFormat = errors.New("unknown log format: must be text or json")

// addCommonFlags registers the flags shared by every pipeline command.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagConfig, "c", "",
		"Configuration file path (default: .sitecorpus in current or home directory, then XDG config)")
	cmd.Flags().StringP(flagOutputDir, "o", config.DefaultOutputDir,
		"Root directory of the text and processed artifacts")
	cmd.Flags().Bool(flagRebuild, false,
		"Regenerate artifacts that already exist")
	cmd.Flags().StringP(flagReport, "r", "",
		"Write a run report to this file (.json for JSON, Markdown otherwise)")
}

// addCrawlFlags registers the flags of the crawl step.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagMustInclude, "m", "",
		"Only follow links whose URL contains this substring")
	cmd.Flags().Bool(flagNoDomainRestriction, false,
		"Follow links that leave the seed's host")
	cmd.Flags().StringP(flagUserAgent, "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().DurationP(flagTimeout, "t", config.DefaultRequestTimeout,
		"Deadline for each page request (0 disables it)")
	cmd.Flags().Bool(flagLedger, true,
		"Record every visit in the SQLite ledger")
	cmd.Flags().String(flagLedgerDir, "",
		"Ledger directory (default: XDG data directory)")
}

// addChunkFlags registers the flags of the tokenize step.
func addChunkFlags(cmd *cobra.Command) {
	cmd.Flags().IntP(flagMaxTokens, "n", config.DefaultMaxTokens,
		"Maximum number of tokens per chunk")
	cmd.Flags().String(flagTailPolicy, config.DefaultTailPolicy,
		"Trailing partial chunk of a record: flush or drop (drop with --keep-empty-chunks matches older corpora)")
	cmd.Flags().Bool(flagKeepEmptyChunks, false,
		`Emit "." when a chunk is flushed with no sentences and keep empty trailing fragments`)
	cmd.Flags().StringP(flagEncoding, "e", config.DefaultEncoding,
		"tiktoken encoding used to count tokens")
	cmd.Flags().IntP(flagConcurrency, "p", config.DefaultConcurrency,
		"Number of records chunked in parallel")
}

// siteSettings builds the configuration of each site handled by one
// command invocation.
type siteSettings struct {
	cmd     *cobra.Command
	file    *config.File
	path    string
	verbose bool
}

func newSiteSettings(cmd *cobra.Command) (*siteSettings, error) {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, err
	}

	file, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}

	return &siteSettings{
		cmd:     cmd,
		file:    file,
		path:    path,
		verbose: getVerboseFlag(cmd),
	}, nil
}

// loadConfigFile loads the configuration file. A missing file is an
// error only when the user named it.
func loadConfigFile(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	cf, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return cf, nil
}

// forSite returns the configuration of domain: built-in defaults, then
// the config file, then the flags given on the command line.
func (s *siteSettings) forSite(domain string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ApplySite(s.file.GetSiteConfig(domain))
	if err := applyFlags(s.cmd, cfg); err != nil {
		return nil, err
	}
	cfg.Verbose = s.verbose
	cfg.ConfigFilePath = s.path
	return cfg, nil
}

// applyFlags copies the flags that were set explicitly into cfg. Flags a
// command does not define are ignored.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	if changed(flagOutputDir) {
		if cfg.OutputDir, err = flags.GetString(flagOutputDir); err != nil {
			return err
		}
	}
	if changed(flagRebuild) {
		if cfg.Rebuild, err = flags.GetBool(flagRebuild); err != nil {
			return err
		}
	}
	if changed(flagReport) {
		if cfg.ReportFile, err = flags.GetString(flagReport); err != nil {
			return err
		}
	}
	if changed(flagMustInclude) {
		if cfg.MustInclude, err = flags.GetString(flagMustInclude); err != nil {
			return err
		}
	}
	if changed(flagNoDomainRestriction) {
		off, err := flags.GetBool(flagNoDomainRestriction)
		if err != nil {
			return err
		}
		cfg.DomainRestriction = !off
	}
	if changed(flagUserAgent) {
		if cfg.UserAgent, err = flags.GetString(flagUserAgent); err != nil {
			return err
		}
	}
	if changed(flagTimeout) {
		if cfg.RequestTimeout, err = flags.GetDuration(flagTimeout); err != nil {
			return err
		}
	}
	if changed(flagLedger) {
		if cfg.Ledger, err = flags.GetBool(flagLedger); err != nil {
			return err
		}
	}
	if changed(flagLedgerDir) {
		dir, err := flags.GetString(flagLedgerDir)
		if err != nil {
			return err
		}
		if dir != "" {
			cfg.LedgerDir = dir
		}
	}
	if changed(flagMaxTokens) {
		if cfg.MaxTokens, err = flags.GetInt(flagMaxTokens); err != nil {
			return err
		}
	}
	if changed(flagTailPolicy) {
		if cfg.TailPolicy, err = flags.GetString(flagTailPolicy); err != nil {
			return err
		}
	}
	if changed(flagKeepEmptyChunks) {
		if cfg.KeepEmptyChunks, err = flags.GetBool(flagKeepEmptyChunks); err != nil {
			return err
		}
	}
	if changed(flagEncoding) {
		if cfg.Encoding, err = flags.GetString(flagEncoding); err != nil {
			return err
		}
	}
	if changed(flagConcurrency) {
		if cfg.Concurrency, err = flags.GetInt(flagConcurrency); err != nil {
			return err
		}
	}
	return nil
}

// resolveTarget turns a command argument into a domain and seed. A URL
// gives both; a bare domain names existing artifacts and has no seed.
func resolveTarget(arg string) (domain, seed string, err error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", "", config.ErrNoTarget
	}
	if strings.Contains(arg, "://") {
		domain, err = crawler.Domain(arg)
		if err != nil {
			return "", "", fmt.Errorf("%w: %s", config.ErrInvalidSeedURL, arg)
		}
		return domain, arg, nil
	}
	if strings.ContainsAny(arg, `/\`) || arg == "." || arg == ".." {
		return "", "", fmt.Errorf("invalid domain %q", arg)
	}
	return arg, "", nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool(flagVerbose)
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool(flagVerbose)
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the redacting logger on the command's error stream.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	format, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString(flagLogFormat)
		if err != nil {
			format = logFormatText
		}
	}

	verbose := getVerboseFlag(cmd)
	switch strings.ToLower(format) {
	case logFormatText, "":
		return log.NewLogger(cmd.ErrOrStderr(), verbose), nil
	case logFormatJSON:
		return log.NewJSONLogger(cmd.ErrOrStderr(), verbose), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownLogFormat, format)
	}
}
