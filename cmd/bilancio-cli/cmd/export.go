package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/codec"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the records of a month as CSV or XLSX",
		Long: `Export every record of a month, unfiltered. The file is named
expenses-<month>.<format> unless --out is given; --out - writes to stdout.

Example:
  bilancio-cli export --month 2024-03
  bilancio-cli export --format xlsx --out march.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := opts.targetMonth()
			if err != nil {
				return err
			}
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("invalid format %q: must be csv or xlsx", format)
			}
			if out == "" {
				out = codec.ExportFilename(month, format)
			}

			var buf bytes.Buffer
			err = opts.withApp(cmd.Context(), func(app *cli.App) error {
				if format == "xlsx" {
					return app.Service.ExportXLSX(&buf, month)
				}
				return app.Service.ExportCSV(&buf, month)
			})
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", month, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")
	return cmd
}
