package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/core"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var d core.Draft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record, or replace one with --id",
		Long: `Add a record to the ledger. With --id the record carrying that id is
replaced as a whole. The date defaults to today.

Example:
  bilancio-cli add --title Coffee --amount 2.50 --category Food --method Cash
  bilancio-cli add --type income --title Salary --amount 2000 --date 2024-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDurableApp(cmd.Context(), func(app *cli.App) error {
				r, err := app.Service.Upsert(cmd.Context(), d)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.ID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&d.ID, "id", "", "id of the record to replace")
	f.StringVar(&d.Kind, "type", string(core.KindExpense), "expense or income")
	f.StringVar(&d.Title, "title", "", "title (required)")
	f.StringVar(&d.Amount, "amount", "", "amount greater than zero (required)")
	f.StringVar(&d.Category, "category", "", "category")
	f.StringVar(&d.Method, "method", "", "payment method")
	f.StringVar(&d.Date, "date", "", "date, YYYY-MM-DD")
	f.StringVar(&d.Note, "note", "", "free text note")
	return cmd
}
