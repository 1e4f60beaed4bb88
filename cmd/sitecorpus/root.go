package main

import (
	"fmt"
	"os"

	"github.com/nao1215/sitecorpus/internal/chunker"
	"github.com/nao1215/sitecorpus/internal/config"
	"github.com/nao1215/sitecorpus/internal/crawler"
	"github.com/spf13/cobra"
)

// env holds the collaborators the commands reach outside the process
// with. Tests replace them with fakes.
type env struct {
	// newFetcher returns the page fetcher for a site's configuration.
	newFetcher func(cfg *config.Config) crawler.Fetcher

	// loadTokenizer loads the named token encoding.
	loadTokenizer func(encoding string) (chunker.Tokenizer, error)
}

func defaultEnv() env {
	return env{
		newFetcher: func(cfg *config.Config) crawler.Fetcher {
			return crawler.NewHTTPFetcher(nil,
				crawler.WithUserAgent(cfg.UserAgent),
				crawler.WithRequestTimeout(cfg.RequestTimeout),
			)
		},
		loadTokenizer: func(encoding string) (chunker.Tokenizer, error) {
			return chunker.NewTiktokenTokenizer(encoding)
		},
	}
}

// NewRootCmd creates the root command for sitecorpus.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultEnv())
}

func newRootCmd(e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecorpus",
		Short: "Build token-bounded text corpora from websites",
		Long: `sitecorpus crawls a website, stores the visible text of every page,
collates the pages into a title/text table and splits that table into
chunks that fit a token budget.

Artifacts are written below the output directory:
  text/<domain>/*.txt           one file per visited page
  processed/<domain>.csv        collated title/text table
  processed/<domain>-tokens.csv chunk table with token counts

Each step does nothing when its output already exists.
Use --rebuild to regenerate it.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String(flagLogFormat, logFormatText, "Log format: text or json")

	cmd.AddCommand(newBuildCmd(e))
	cmd.AddCommand(newCrawlCmd(e))
	cmd.AddCommand(newCollateCmd(e))
	cmd.AddCommand(newTokenizeCmd(e))
	cmd.AddCommand(newVisitsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
