package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/pipeline"
	"github.com/couchcryptid/flood-monitor-service/internal/scheduler"
)

func newRollupCommand(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Compute and store the summary of one civil day",
		Long: `Compute the daily summary for a date and upsert it. Running it again for
the same date overwrites the stored row. Adverse days are alerted through the
configured sinks.

Examples:
  floodmon rollup
  floodmon rollup --date 2024-04-25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			target := scheduler.TargetDate(domain.Now(), a.cfg.Location)
			if date != "" {
				d, err := domain.ParseCivilDate(date)
				if err != nil {
					return err
				}
				target = d
			}

			c, err := a.buildComponents(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			rollup := pipeline.NewRollup(c.store, c.store, c.notifier, a.cfg.Thresholds, a.cfg.Location, a.logger)
			summary, err := rollup.ComputeDailySummary(ctx, target)
			if err != nil {
				return fmt.Errorf("rollup %s: %w", target, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "civil date to summarize as YYYY-MM-DD (default yesterday)")
	return cmd
}
