//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/pkg/version"
)

// RunsTable is the entity run ledger.
const RunsTable = "etl_runs"

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one ledger entry.
type Run struct {
	ID         uuid.UUID
	Entity     string
	Flow       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Rows       int64
	Version    string
}

// RunsSchema describes the run ledger table.
var RunsSchema = TableSchema{
	Name: RunsTable,
	Columns: []Column{
		{Name: "run_id", Type: "UUID"},
		{Name: "entity", Type: "TEXT"},
		{Name: "flow", Type: "TEXT"},
		{Name: "started_at", Type: "TIMESTAMPTZ"},
		{Name: "finished_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "status", Type: "TEXT"},
		{Name: "rows", Type: "BIGINT"},
		{Name: "version", Type: "TEXT"},
	},
	PrimaryKey: []string{"run_id"},
}

// StartRun records a running entry for entity.
func (w *Warehouse) StartRun(ctx context.Context, entity, flow string) (*Run, error) {
	run := &Run{
		ID:        uuid.New(),
		Entity:    entity,
		Flow:      flow,
		StartedAt: w.now(),
		Status:    RunRunning,
		Version:   version.Short(),
	}

	_, err := w.db.Exec(ctx, `
        INSERT INTO `+w.Table(RunsTable)+` (run_id, entity, flow, started_at, status, rows, version)
        VALUES ($1, $2, $3, $4, $5, 0, $6)
    `, run.ID, run.Entity, run.Flow, run.StartedAt, run.Status, run.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to record run of %s: %w", entity, err)
	}

	logging.Debug().
		Str("run_id", run.ID.String()).
		Str("entity", entity).
		Str("flow", flow).
		Msg("Started run")

	return run, nil
}

// FinishRun closes run with the outcome of runErr.
func (w *Warehouse) FinishRun(ctx context.Context, run *Run, rows int64, runErr error) error {
	finished := w.now()
	run.FinishedAt = &finished
	run.Rows = rows
	run.Status = RunSucceeded
	if runErr != nil {
		run.Status = RunFailed
	}

	_, err := w.db.Exec(ctx, `
        UPDATE `+w.Table(RunsTable)+`
        SET finished_at = $2, status = $3, rows = $4
        WHERE run_id = $1
    `, run.ID, finished, run.Status, rows)
	if err != nil {
		return fmt.Errorf("failed to close run %s: %w", run.ID, err)
	}
	return nil
}

// LastSuccessfulRun returns the most recent succeeded run of entity.
// ok is false when the entity never completed.
func (w *Warehouse) LastSuccessfulRun(ctx context.Context, entity string) (run *Run, ok bool, err error) {
	r := &Run{}
	err = w.db.QueryRow(ctx, `
        SELECT run_id, entity, flow, started_at, finished_at, status, rows, version
        FROM `+w.Table(RunsTable)+`
        WHERE entity = $1 AND status = $2
        ORDER BY finished_at DESC
        LIMIT 1
    `, entity, RunSucceeded).Scan(&r.ID, &r.Entity, &r.Flow, &r.StartedAt,
		&r.FinishedAt, &r.Status, &r.Rows, &r.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read last run of %s: %w", entity, err)
	}
	return r, true, nil
}

// RecentRuns lists the latest ledger entries, newest first.
func (w *Warehouse) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := w.db.Query(ctx, `
        SELECT run_id, entity, flow, started_at, finished_at, status, rows, version
        FROM `+w.Table(RunsTable)+`
        ORDER BY started_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Entity, &r.Flow, &r.StartedAt,
			&r.FinishedAt, &r.Status, &r.Rows, &r.Version); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
