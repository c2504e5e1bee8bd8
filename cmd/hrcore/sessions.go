package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tech-arch1tect/hrcore"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session ledger maintenance",
	}

	var retention time.Duration
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete sessions that expired before the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := hrcore.New(hrcore.WithoutHTTP(), hrcore.WithoutPurgeWorker())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer app.Stop(context.Background())

			if retention <= 0 {
				retention = app.Config().Session.Retention
			}

			n, err := app.Ledger().PurgeExpired(ctx, retention)
			if err != nil {
				return fmt.Errorf("purge failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d sessions older than %s\n", n, retention)
			return nil
		},
	}
	purgeCmd.Flags().DurationVar(&retention, "retention", 0, "Override HRCORE_SESSION_RETENTION")

	cmd.AddCommand(purgeCmd)
	return cmd
}
