package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one staleness refresh batch and exit",
		Long: `
refresh re-fetches wildfire data for up to WILDFIRE_REFRESH_BATCH_SIZE addresses
whose data is older than WILDFIRE_REFRESH_STALE_HOURS, oldest first. It is meant
for cron-style deployments that run the scheduler outside the API process.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			updated, err := a.refresher.RefreshStale(ctx)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d addresses\n", updated)
			return nil
		},
	}
}
