// Package cmd provides the bilancio command line commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	debug      bool
	month      string

	logger *log.Logger
	now    func() time.Time
}

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{now: time.Now}

	root := &cobra.Command{
		Use:   "bilancio-cli",
		Short: "Inspect and edit the bilancio ledger from the terminal",
		Long: `bilancio-cli works on the same ledger as the bilancio server, using
the same configuration (environment, .env file or --config).

Example:
  bilancio-cli summary --month 2024-03
  bilancio-cli list --category Food --sort amount_desc
  bilancio-cli export --format xlsx
  bilancio-cli import backup.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			opts.logger = log.New(log.Config{
				Level:     level,
				Component: log.ComponentCLI,
				Handler:   slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}),
			})
			if opts.configFile != "" {
				return os.Setenv("CONFIG_FILE", opts.configFile)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is environment and .env)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.month, "month", "m", "", "month to work on, YYYY-MM (default is the current month)")

	root.AddCommand(
		newSummaryCmd(opts),
		newListCmd(opts),
		newMonthsCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newAddCmd(opts),
		newDeleteCmd(opts),
		newCategoriesCmd(opts),
	)
	return root
}

// withApp opens the ledger, runs fn and closes the app so that pending
// snapshots reach storage before the process exits.
func (o *rootOptions) withApp(ctx context.Context, fn func(app *cli.App) error) error {
	return o.open(ctx, false, fn)
}

// withDurableApp is withApp for commands that change the ledger. It refuses
// backends that do not outlive the process, where the change would be lost.
func (o *rootOptions) withDurableApp(ctx context.Context, fn func(app *cli.App) error) error {
	return o.open(ctx, true, fn)
}

func (o *rootOptions) open(ctx context.Context, durable bool, fn func(app *cli.App) error) (err error) {
	cli.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if kind := backend.BackendType(cfg.DataBackend); durable && !kind.Shared() {
		return fmt.Errorf("%w: the %s backend keeps nothing after the command exits; set DATA_BACKEND to one of %v",
			errVolatileBackend, kind, durableBackends())
	}
	o.logger.Debug("Opening ledger", log.FieldBackend, cfg.DataBackend)

	app, err := cli.OpenApp(ctx, cfg, o.logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := app.Close(closeCtx); cerr != nil && err == nil {
			err = fmt.Errorf("flush ledger: %w", cerr)
		}
	}()
	return fn(app)
}

var errVolatileBackend = errors.New("refusing to change the ledger")

func durableBackends() []backend.BackendType {
	var out []backend.BackendType
	for _, t := range backend.GetBackendTypes() {
		if t.Shared() {
			out = append(out, t)
		}
	}
	return out
}

// targetMonth returns --month, or the current month when it is unset.
func (o *rootOptions) targetMonth() (string, error) {
	if o.month == "" {
		return core.FormatMonth(o.now()), nil
	}
	if !core.IsMonth(o.month) {
		return "", fmt.Errorf("invalid month %q: must be YYYY-MM", o.month)
	}
	return o.month, nil
}
