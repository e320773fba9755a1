package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"studentrecords/internal/bootstrap"
)

// NewResyncCommand creates the resync command.
func NewResyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Re-mirror every stored record",
		Long: `Upsert the mirror document of every record in the record store.

Use it after the mirror was unavailable or replaced. Documents of records
that no longer exist are left alone. Each record gets one attempt; the
command exits with status 1 if any of them failed.

Examples:
  recordctl resync
  MIRROR_BACKEND=mongo MONGO_URI=mongodb://localhost recordctl resync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return runResync(ctx, rootOpts.output(cmd), app)
			})
		},
	}
}

// ResyncResult is the JSON output of resync.
type ResyncResult struct {
	Total     int     `json:"total"`
	Synced    int     `json:"synced"`
	Failed    int     `json:"failed"`
	FailedIDs []int64 `json:"failed_ids,omitempty"`
}

func runResync(ctx context.Context, out *OutputFormatter, app *bootstrap.App) error {
	recs, err := app.Records.List(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list records", err)
	}

	res := app.Bridge.Backfill(ctx, recs)
	result := ResyncResult{
		Total:     len(recs),
		Synced:    res.Synced,
		Failed:    res.Failed,
		FailedIDs: res.FailedIDs,
	}

	if out.JSON() {
		if result.Failed > 0 {
			if err := out.Failure(result); err != nil {
				return err
			}
		} else if err := out.Success(result); err != nil {
			return err
		}
	} else {
		out.Printf("synced %d of %d records\n", result.Synced, result.Total)
		if result.Failed > 0 {
			out.Printf("failed: %v\n", result.FailedIDs)
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d mirror writes failed", result.Failed))
	}
	if err := ctx.Err(); err != nil {
		return WrapExitError(ExitFailure, "resync interrupted", err)
	}
	return nil
}
