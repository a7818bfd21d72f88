package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

var initSkipExtract bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Rebuild the warehouse from scratch",
	Long: `Drop and recreate every selected table, extract full snapshots from
the upstream APIs into the raw bucket and load them.

With --skip-extract the snapshots already stored in the raw bucket are
reloaded and no API credentials are needed. This is also how a corpus
written by the sample command is loaded.

Example:
  pgedge-boxoffice init --connection "postgres://..."
  pgedge-boxoffice init --skip-extract --entities movie,people`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initSkipExtract, "skip-extract", false,
		"reload stored raw snapshots instead of calling the APIs")
	initCmd.Flags().StringSliceVar(&entityNames, "entities", nil,
		"entities to initialize (default: all)")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.ValidateInit(initSkipExtract); err != nil {
		return err
	}

	es, err := entities.Select(entityNames...)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	startMetrics(ctx, cfg)

	env, closeEnv, err := buildEnv(ctx, cfg, !initSkipExtract)
	if err != nil {
		return fmt.Errorf("failed to prepare run: %w", err)
	}
	defer closeEnv()

	logging.Info().
		Str("dataset", cfg.Dataset).
		Strs("entities", names(es)).
		Bool("skip_extract", initSkipExtract).
		Msg("Initializing warehouse")

	started := time.Now()
	if err := entities.NewRunner(env).Init(ctx, es, initSkipExtract); err != nil {
		return err
	}

	logging.Info().
		Str("dataset", cfg.Dataset).
		Dur("elapsed", time.Since(started)).
		Msg("Warehouse initialization complete")
	return nil
}

func names(es []entities.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name()
	}
	return out
}
