package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import records from a JSON array",
		Long: `Import records from a JSON file holding an array of records. Imported
records go in front of the existing ones; missing fields get defaults.

Example:
  bilancio-cli import backup.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return opts.withDurableApp(cmd.Context(), func(app *cli.App) error {
				records, err := app.Service.Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", len(records))
				return nil
			})
		},
	}
}
