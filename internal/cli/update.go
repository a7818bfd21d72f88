package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

// dateLayout is the format of --end-date.
const dateLayout = "2006-01-02"

var updateEndDate string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply upstream changes to the warehouse",
	Long: `Fetch the records that changed upstream since the last successful run
of each entity, store them as snapshots in the update bucket and merge
them into the warehouse.

The window of each entity starts at its last successful run. Entities
that never completed a run start at the latest insertion time of their
table, or one week before the end date of an empty table.

Example:
  pgedge-boxoffice update
  pgedge-boxoffice update --end-date 2024-06-30 --entities movie`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateEndDate, "end-date", "",
		"end of the update window as YYYY-MM-DD (default: now)")
	updateCmd.Flags().StringSliceVar(&entityNames, "entities", nil,
		"entities to update (default: all)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.ValidateUpdate(); err != nil {
		return err
	}

	end, err := parseEndDate(updateEndDate, time.Now().UTC())
	if err != nil {
		return err
	}

	es, err := entities.Select(entityNames...)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	startMetrics(ctx, cfg)

	env, closeEnv, err := buildEnv(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to prepare run: %w", err)
	}
	defer closeEnv()
	env.Now = func() time.Time { return end }

	logging.Info().
		Str("dataset", cfg.Dataset).
		Strs("entities", names(es)).
		Time("end", end).
		Msg("Updating warehouse")

	started := time.Now()
	if err := entities.NewRunner(env).Update(ctx, es, end); err != nil {
		return err
	}

	logging.Info().
		Str("dataset", cfg.Dataset).
		Dur("elapsed", time.Since(started)).
		Msg("Warehouse update complete")
	return nil
}

// parseEndDate parses s as a UTC day. An empty s means now; a past day
// ends at its last instant so the whole day is covered.
func parseEndDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", s)
	}
	end := day.Add(24*time.Hour - time.Nanosecond)
	if end.After(now) {
		return now, nil
	}
	return end, nil
}
