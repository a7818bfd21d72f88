//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-boxoffice.
package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-boxoffice/internal/config"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/pkg/version"
)

var (
	// Global flags
	cfgFile     string
	connection  string
	logLevel    string
	logFormat   string
	metricsAddr string
	entityNames []string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-boxoffice",
		Short: "Movie metadata and box office warehouse loader",
		Long: `pgedge-boxoffice extracts movie metadata from TMDB, weekly domestic
box office charts from BoxOfficeMojo and trailer engagement from YouTube
and Vimeo, keeps raw snapshots in object storage and reconciles them into
a PostgreSQL warehouse.

An init run rebuilds every table from scratch. Weekly update runs only
fetch what changed since the last successful run of each entity and merge
it into the existing rows.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-boxoffice.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string of the warehouse")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (auto, console, json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address during a run (e.g. :9102)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(tablesCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List managed warehouse tables",
	Long: `List the entities loaded into the warehouse in run order, with
their primary keys.`,
	Run: func(cmd *cobra.Command, args []string) {
		var rows [][]string
		for _, e := range entities.All() {
			schema := e.Table()
			rows = append(rows, []string{
				strconv.Itoa(e.Order()),
				e.Name(),
				joinKeys(schema.PrimaryKey),
				e.Description(),
			})
		}
		cmd.Println(renderTable(
			[]string{"Order", "Table", "Key", "Description"},
			rows,
			[]columnAlignment{alignRight},
		))
	},
}
