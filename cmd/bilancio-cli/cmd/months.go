package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/core"
)

func newMonthsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List the months that have records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(app *cli.App) error {
				for _, m := range app.Service.Months() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m, core.MonthLabel(m))
				}
				return nil
			})
		},
	}
}
