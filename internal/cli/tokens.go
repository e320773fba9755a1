package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"studentrecords/internal/bootstrap"
)

// TokensOptions holds flags for the tokens prune command.
type TokensOptions struct {
	*RootOptions
	Retention time.Duration
}

// NewTokensCommand creates the tokens command group.
func NewTokensCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage stored refresh tokens",
	}
	cmd.AddCommand(newTokensPruneCommand(rootOpts))
	return cmd
}

func newTokensPruneCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokensOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired and revoked refresh tokens",
		Long: `Delete refresh tokens that expired or were revoked more than --retention ago.

Examples:
  recordctl tokens prune
  recordctl tokens prune --retention 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return runTokensPrune(ctx, opts.output(cmd), app, opts.Retention)
			})
		},
	}

	cmd.Flags().DurationVar(&opts.Retention, "retention", 7*24*time.Hour, "keep tokens that ended within this window")

	return cmd
}

func runTokensPrune(ctx context.Context, out *OutputFormatter, app *bootstrap.App, retention time.Duration) error {
	if retention < 0 {
		return NewExitError(ExitCommandError, "retention must not be negative")
	}

	n, err := app.Auth.CleanupTokens(ctx, retention)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to prune tokens", err)
	}

	if out.JSON() {
		return out.Success(map[string]int{"deleted": n})
	}
	out.Printf("deleted %d refresh tokens\n", n)
	return nil
}
