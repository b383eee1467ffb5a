package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		filter ledger.Filter
		sort   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records of a month",
		Long: `List the records of a month that match every given filter.

Example:
  bilancio-cli list --month 2024-03 --category Food --min 10 --sort amount_desc
  bilancio-cli list -q coffee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := opts.targetMonth()
			if err != nil {
				return err
			}
			key := ledger.SortKey(sort)
			if !key.IsValid() {
				return fmt.Errorf("invalid sort %q: must be newest, oldest, amount_desc or amount_asc", sort)
			}
			return opts.withApp(cmd.Context(), func(app *cli.App) error {
				view := app.Service.View(ledger.Query{Month: month, Filter: filter, Sort: key})
				printRecords(cmd, view.Records)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&filter.Query, "query", "q", "", "text to look for in title or note")
	f.StringVar(&filter.Category, "category", "", "only this category")
	f.StringVar(&filter.Method, "method", "", "only this payment method")
	f.StringVar(&filter.DateFrom, "from", "", "earliest date, YYYY-MM-DD")
	f.StringVar(&filter.DateTo, "to", "", "latest date, YYYY-MM-DD")
	f.StringVar(&filter.AmountMin, "min", "", "smallest amount")
	f.StringVar(&filter.AmountMax, "max", "", "largest amount")
	f.StringVar(&sort, "sort", string(ledger.SortNewest), "newest, oldest, amount_desc or amount_asc")
	return cmd
}

func printRecords(cmd *cobra.Command, records []core.Record) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No records.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tTITLE\tCATEGORY\tMETHOD\tAMOUNT\tID")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date, r.Kind, r.Title, r.Category, r.Method, core.FormatAmount(r.Amount), r.ID)
	}
	tw.Flush()
}
