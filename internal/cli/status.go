package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show table row counts and recent runs",
	Long: `Show the row count and last successful run of every managed
table, followed by the most recent entries of the run ledger.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 10,
		"number of recent runs to list (0 hides the ledger)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	wh, closeWarehouse, err := openWarehouse(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeWarehouse()

	hasLedger, err := wh.TableExists(ctx, warehouse.RunsTable)
	if err != nil {
		return err
	}

	tables, err := tableStatus(ctx, wh, hasLedger)
	if err != nil {
		return err
	}
	cmd.Printf("Dataset: %s\n", wh.Dataset())
	cmd.Println(renderTable(
		[]string{"Table", "Rows", "Last Success"},
		tables,
		[]columnAlignment{alignLeft, alignRight},
	))

	if !hasLedger || statusRuns <= 0 {
		return nil
	}
	runs, err := wh.RecentRuns(ctx, statusRuns)
	if err != nil {
		return err
	}
	cmd.Println(renderTable(
		[]string{"Started", "Entity", "Flow", "Status", "Rows", "Elapsed", "Version"},
		runRows(runs),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

func tableStatus(ctx context.Context, wh *warehouse.Warehouse, hasLedger bool) ([][]string, error) {
	var rows [][]string
	for _, e := range entities.All() {
		exists, err := wh.TableExists(ctx, e.Name())
		if err != nil {
			return nil, err
		}
		if !exists {
			rows = append(rows, []string{e.Name(), "-", "not created"})
			continue
		}

		count, err := wh.Count(ctx, e.Name())
		if err != nil {
			return nil, err
		}

		last := "never"
		if hasLedger {
			run, ok, err := wh.LastSuccessfulRun(ctx, e.Name())
			if err != nil {
				return nil, err
			}
			if ok && run.FinishedAt != nil {
				last = formatTime(*run.FinishedAt) + " (" + run.Flow + ")"
			}
		}
		rows = append(rows, []string{e.Name(), strconv.FormatInt(count, 10), last})
	}
	return rows, nil
}

func runRows(runs []warehouse.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		elapsed := "-"
		if r.FinishedAt != nil {
			elapsed = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			formatTime(r.StartedAt),
			r.Entity,
			r.Flow,
			r.Status,
			strconv.FormatInt(r.Rows, 10),
			elapsed,
			r.Version,
		})
	}
	return rows
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// formatCell renders a query value. Numbers decoded from the cache arrive
// as float64, so whole values print without a fraction.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.Equal(x.Truncate(24 * time.Hour)) {
			return x.UTC().Format(dateLayout)
		}
		return formatTime(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
