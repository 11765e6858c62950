package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

const seedBaseLevel = 90.0

func newSeedCommand(a *app) *cobra.Command {
	var (
		date  string
		count int
		peak  float64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store synthetic readings for one civil day",
		Long: `Store count synthetic readings spread evenly over a civil day. Levels rise
from a resting level to --peak around midday and fall back, so a peak above
FLOOD_THRESHOLD produces a flood day on the next rollup. Readings are written
straight to the store: they are not classified and never alert.

Examples:
  floodmon seed --date 2024-04-25 --count 96 --peak 175`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := a.cfg.Location
			target := domain.DateOf(domain.Now(), loc)
			if date != "" {
				d, err := domain.ParseCivilDate(date)
				if err != nil {
					return err
				}
				target = d
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			for _, r := range syntheticDay(target, loc, count, peak) {
				if err := s.InsertReading(cmd.Context(), r); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d readings for %s\n", count, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "civil date as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&count, "count", 24, "number of readings")
	cmd.Flags().Float64Var(&peak, "peak", 130, "highest level of the day in centimeters")
	return cmd
}

// syntheticDay spreads count readings over date, each in the middle of its slot.
// The left bank trails the right one slightly.
func syntheticDay(date domain.CivilDate, loc *time.Location, count int, peak float64) []domain.Reading {
	from, to := date.Window(loc)
	slot := to.Sub(from) / time.Duration(count)

	out := make([]domain.Reading, count)
	for i := range out {
		phase := (float64(i) + 0.5) / float64(count)
		level := seedBaseLevel + (peak-seedBaseLevel)*math.Sin(math.Pi*phase)
		right := math.Round(level*100) / 100
		left := math.Round(level*0.97*100) / 100
		out[i] = domain.Reading{
			ID:         uuid.NewString(),
			RightLevel: right,
			LeftLevel:  left,
			RightFlow:  math.Round(right*0.8*100) / 100,
			LeftFlow:   math.Round(left*0.8*100) / 100,
			CapturedAt: from.Add(slot*time.Duration(i) + slot/2),
		}
	}
	return out
}
