package main

import (
	"github.com/nao1215/sitecorpus/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBuildCmd(e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <seed-url>...",
		Short: "Crawl, collate and tokenize one or more websites",
		Long: `Build runs crawl, collate and tokenize for every seed URL. Steps whose
output already exists are skipped unless --rebuild is given, so an
interrupted build can simply be started again.

Several sites can be built at once with --batch; the pages of a single
site are always fetched one at a time. A site that fails does not stop
the others.

Examples:
  # Build one corpus
  sitecorpus build https://docs.example.com/

  # Build two sites concurrently and write a Markdown report
  sitecorpus build -b 2 -r report.md https://docs.example.com/ https://blog.example.com/

  # Rebuild everything with a smaller chunk budget
  sitecorpus build --rebuild -n 300 https://docs.example.com/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(e, cmd, args, true,
				pipeline.StepCrawl, pipeline.StepCollate, pipeline.StepTokenize)
			if err != nil {
				return err
			}

			batch, err := cmd.Flags().GetInt(flagBatch)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			return r.runBatch(ctx, batch)
		},
	}

	addCommonFlags(cmd)
	addCrawlFlags(cmd)
	addChunkFlags(cmd)
	cmd.Flags().IntP(flagBatch, "b", pipeline.DefaultBatchConcurrency,
		"Number of sites built concurrently")

	return cmd
}
