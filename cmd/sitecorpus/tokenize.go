package main

import (
	"github.com/nao1215/sitecorpus/internal/pipeline"
	"github.com/spf13/cobra"
)

func newTokenizeCmd(e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize <seed-url|domain>",
		Short: "Split the collated table into token-bounded chunks",
		Long: `Tokenize reads <output-dir>/processed/<domain>.csv and writes
<output-dir>/processed/<domain>-tokens.csv with a text and n_tokens column.

Records within the token budget are kept whole. Longer records are split
on ". " and packed into chunks of at most --max-tokens tokens; a single
sentence longer than the budget is dropped.

Examples:
  sitecorpus tokenize docs.example.com
  sitecorpus tokenize -n 300 --tail-policy drop docs.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(e, cmd, args, false, pipeline.StepTokenize)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			return r.run(ctx)
		},
	}

	addCommonFlags(cmd)
	addChunkFlags(cmd)

	return cmd
}
