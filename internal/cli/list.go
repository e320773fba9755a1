package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"studentrecords/internal/bootstrap"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored record",
		Long: `Print every record in the record store, ordered by id.

Examples:
  recordctl list
  recordctl list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return runList(ctx, rootOpts.output(cmd), app)
			})
		},
	}
}

func runList(ctx context.Context, out *OutputFormatter, app *bootstrap.App) error {
	recs, err := app.Records.List(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list records", err)
	}

	if out.JSON() {
		return out.Success(recs)
	}

	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.FullName(),
			r.ClassLabel,
			r.PhoneNumber,
			r.City,
			r.State,
			r.CreatedAt.Format(time.RFC3339),
		})
	}
	return out.Table([]string{"ID", "NAME", "CLASS", "PHONE", "CITY", "STATE", "CREATED"}, rows)
}
