package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
)

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the category and payment method lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(app *cli.App) error {
				v := app.Service.Vocabulary()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Categories: %s\n", strings.Join(v.Categories, ", "))
				fmt.Fprintf(out, "Methods:    %s\n", strings.Join(v.Methods, ", "))
				return nil
			})
		},
	}
}
