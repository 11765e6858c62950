package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/flood-monitor-service/internal/pipeline"
)

func newPurgeCommand(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete raw readings older than the retention horizon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("days") {
				days = a.cfg.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			sweeper := pipeline.NewSweeper(s, a.metrics, a.logger)
			n, err := sweeper.PurgeOlderThan(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d readings older than %d days\n", n, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention horizon in days (default RETENTION_DAYS)")
	return cmd
}
