package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nao1215/sitecorpus/internal/config"
	"github.com/nao1215/sitecorpus/internal/database"
	"github.com/nao1215/sitecorpus/internal/log"
	"github.com/spf13/cobra"
)

func newVisitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visits <seed-url|domain>",
		Short: "List the ledger entries of a crawled site",
		Long: `Visits prints the pages recorded in the visit ledger for a site: the
outcome of each fetch, the HTTP status, the number of bytes of text
and whether the page only asked for JavaScript.

Examples:
  sitecorpus visits docs.example.com
  sitecorpus visits --failed https://docs.example.com/
  sitecorpus visits --page https://docs.example.com/guide docs.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runVisitsCmd,
	}

	cmd.Flags().Bool("failed", false, "Only list failed fetches")
	cmd.Flags().String("page", "", "Show the recorded visit of one page URL of the site")
	cmd.Flags().String(flagLedgerDir, "",
		"Ledger directory (default: XDG data directory)")

	return cmd
}

func runVisitsCmd(cmd *cobra.Command, args []string) error {
	domain, _, err := resolveTarget(args[0])
	if err != nil {
		return err
	}

	failedOnly, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return err
	}

	dir, err := cmd.Flags().GetString(flagLedgerDir)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = config.XDGDataDir()
	}

	ledger, err := database.Open(dir, database.Options{EnableWAL: true})
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := cmd.Context()

	page, err := cmd.Flags().GetString("page")
	if err != nil {
		return err
	}
	if page != "" {
		return printVisit(cmd, ledger, domain, page)
	}

	counts, err := ledger.CountVisits(ctx, domain)
	if err != nil {
		return err
	}

	var visits []*database.Visit
	if failedOnly {
		visits, err = ledger.FailedVisits(ctx, domain)
	} else {
		visits, err = ledger.ListVisits(ctx, domain)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d visited, %d fetched, %d failed\n\n",
		domain, counts.Total(), counts.Fetched, counts.Failed)
	if len(visits) == 0 {
		fmt.Fprintln(out, "No visits recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tSTATUS\tCODE\tBYTES\tJS\tVISITED\tERROR")
	for _, v := range visits {
		code := "-"
		if v.StatusCode != 0 {
			code = strconv.Itoa(v.StatusCode)
		}
		js := ""
		if v.RequiresJavaScript {
			js = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			log.RedactURL(v.URL), v.Status, code, v.Bytes, js, v.Timestamp.Local().Format(time.DateTime), log.RedactText(v.Error))
	}
	return w.Flush()
}

// printVisit prints every stored field of the visit of pageURL.
func printVisit(cmd *cobra.Command, ledger *database.Ledger, domain, pageURL string) error {
	v, err := ledger.GetVisit(cmd.Context(), pageURL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if v == nil || v.Domain != domain {
		fmt.Fprintf(out, "No visit recorded for %s.\n", log.RedactURL(pageURL))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL:\t%s\n", log.RedactURL(v.URL))
	fmt.Fprintf(w, "File:\t%s\n", v.Filename)
	fmt.Fprintf(w, "Status:\t%s\n", v.Status)
	fmt.Fprintf(w, "HTTP status:\t%d\n", v.StatusCode)
	fmt.Fprintf(w, "Bytes:\t%d\n", v.Bytes)
	fmt.Fprintf(w, "JavaScript only:\t%t\n", v.RequiresJavaScript)
	fmt.Fprintf(w, "Content hash:\t%s\n", v.ContentHash)
	fmt.Fprintf(w, "Visited:\t%s\n", v.Timestamp.Local().Format(time.DateTime))
	if v.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", log.RedactText(v.Error))
	}
	return w.Flush()
}
