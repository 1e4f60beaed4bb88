package main

import (
	"github.com/nao1215/sitecorpus/internal/pipeline"
	"github.com/spf13/cobra"
)

func newCrawlCmd(e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl a website into one text file per page",
		Long: `Crawl fetches the seed URL and every link reachable from it, writing the
visible text of each page to <output-dir>/text/<domain>/.

Links are followed depth-first: the most recently discovered link is
visited next. By default only links on the seed's exact host are followed.
A page that cannot be fetched leaves an empty file and its links are
never discovered.

If the text directory already exists the crawl is skipped; an interrupted
crawl keeps the pages it saved. Use --rebuild to start over.

Examples:
  # Crawl a documentation site
  sitecorpus crawl https://docs.example.com/

  # Only follow links below /guide/
  sitecorpus crawl -m /guide/ https://docs.example.com/guide/

  # Start over, discarding earlier pages
  sitecorpus crawl --rebuild https://docs.example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(e, cmd, args, true, pipeline.StepCrawl)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			return r.run(ctx)
		},
	}

	addCommonFlags(cmd)
	addCrawlFlags(cmd)

	return cmd
}
