package main

import (
	"github.com/nao1215/sitecorpus/internal/pipeline"
	"github.com/spf13/cobra"
)

func newCollateCmd(e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collate <seed-url|domain>",
		Short: "Collate crawled pages into the title/text table",
		Long: `Collate reads every page text of a crawled site and writes
<output-dir>/processed/<domain>.csv with one row per page. The title is
the page's file name and newlines in the text are replaced by spaces.

The site can be named by its seed URL or by its domain (host and port).

Examples:
  sitecorpus collate docs.example.com
  sitecorpus collate --rebuild https://docs.example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(e, cmd, args, false, pipeline.StepCollate)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			return r.run(ctx)
		},
	}

	addCommonFlags(cmd)

	return cmd
}
