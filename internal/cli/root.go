// Package cli wires the flood monitor's components behind its commands.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/flood-monitor-service/internal/config"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// app carries what every command needs once configuration has been loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	newMetrics func() *observability.Metrics
}

// NewRootCommand builds the floodmon command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(observability.NewMetrics)
}

func newRootCommand(newMetrics func() *observability.Metrics) *cobra.Command {
	a := &app{newMetrics: newMetrics}

	root := &cobra.Command{
		Use:   "floodmon",
		Short: "River flood monitoring service",
		Long: `floodmon ingests water level and flow readings from the river sensors,
classifies each reading's flood risk, alerts operators, and keeps daily summaries.

Configuration is read from environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg)
			a.metrics = a.newMetrics()
			return nil
		},
	}

	root.AddCommand(
		newServeCommand(a),
		newRollupCommand(a),
		newPurgeCommand(a),
		newSeedCommand(a),
	)
	return root
}
