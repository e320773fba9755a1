// Package cli implements the recordctl maintenance commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"studentrecords/internal/bootstrap"
	"studentrecords/internal/config"
	"studentrecords/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "text" | "json"

	// open builds the application. Tests replace it.
	open func(ctx context.Context, cfg config.Config) (*bootstrap.App, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for recordctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: bootstrap.New})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordctl",
		Short: "Maintenance tool for the student records service",
		Long: `recordctl works directly against the configured record store and mirror.

Configuration is read the same way as the server: defaults, then the YAML
file given by --config (or CONFIG_FILE), then environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewResyncCommand(opts))
	cmd.AddCommand(NewTokensCommand(opts))

	return cmd
}

// withApp loads configuration, opens the stores and runs fn.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	path := o.ConfigFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	log := o.logger(cmd.ErrOrStderr())
	ctx := logger.WithLogger(cmd.Context(), log)
	app, err := o.open(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open stores", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Warnw("failed to close stores", "error", err)
		}
	}()

	return fn(ctx, app)
}

// logger writes human-readable entries to w. Only warnings and errors
// are shown unless --verbose is set.
func (o *RootOptions) logger(w io.Writer) *logger.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	return logger.NewConsole(w, level)
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
