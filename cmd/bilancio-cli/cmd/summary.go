package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the totals of a month",
		Long: `Show income, expense and net totals of a month, its top spending
category and the expense breakdown by category and by day.

Example:
  bilancio-cli summary --month 2024-03`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := opts.targetMonth()
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(app *cli.App) error {
				view := app.Service.View(ledger.Query{Month: month})
				printSummary(cmd, view)
				return nil
			})
		},
	}
}

func printSummary(cmd *cobra.Command, view ledger.View) {
	out := cmd.OutOrStdout()
	s := view.Summary

	fmt.Fprintf(out, "=== %s ===\n", core.MonthLabel(view.Month))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income:\t%s\n", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(tw, "Expense:\t%s\n", core.FormatAmount(s.TotalExpense))
	fmt.Fprintf(tw, "Net:\t%s\n", core.FormatAmount(s.Net))
	fmt.Fprintf(tw, "Top category:\t%s\n", s.TopCategory)
	fmt.Fprintf(tw, "Records:\t%d (%d expenses, %d income)\n", s.Count, s.ExpenseCount, s.IncomeCount)
	tw.Flush()

	if len(view.ByCategory) > 0 {
		fmt.Fprintln(out, "\nBy category:")
		printBuckets(cmd, view.ByCategory)
	}
	if len(view.ByDay) > 0 {
		fmt.Fprintln(out, "\nBy day:")
		printBuckets(cmd, view.ByDay)
	}
}

func printBuckets(cmd *cobra.Command, buckets []ledger.Bucket) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, b := range buckets {
		fmt.Fprintf(tw, "  %s\t%s\t\n", b.Key, core.FormatAmount(b.Value))
	}
	tw.Flush()
}
