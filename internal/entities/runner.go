//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package entities

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/changeset"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/metrics"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// UpdatePeriod is the recency window used when an entity has neither a
// successful run nor any rows.
const UpdatePeriod = 7 * 24 * time.Hour

// Runner drives entities through the init and update flows and records
// each run in the ledger.
type Runner struct {
	env *Env
}

// NewRunner creates a runner over env.
func NewRunner(env *Env) *Runner {
	return &Runner{env: env}
}

// Reset drops and recreates the entity tables and ensures the dataset and
// the run ledger exist.
func (r *Runner) Reset(ctx context.Context, es []Entity) error {
	w := r.env.Warehouse
	if err := w.CreateDataset(ctx); err != nil {
		return err
	}
	if err := w.CreateTable(ctx, warehouse.RunsSchema); err != nil {
		return err
	}
	for i := len(es) - 1; i >= 0; i-- {
		if err := w.DeleteTable(ctx, es[i].Name()); err != nil {
			return err
		}
	}
	for _, e := range es {
		if err := w.CreateTable(ctx, e.Table()); err != nil {
			return err
		}
		logging.Info().Str("table", e.Name()).Msg("Created table")
	}
	return nil
}

// Init resets the tables of es and fully loads each in order. The first
// failing entity stops the run.
func (r *Runner) Init(ctx context.Context, es []Entity, skipExtract bool) error {
	if err := r.Reset(ctx, es); err != nil {
		return fmt.Errorf("failed to reset warehouse: %w", err)
	}
	for _, e := range es {
		err := r.run(ctx, e, FlowInit, func() (int64, error) {
			return e.Initialise(ctx, r.env, skipExtract)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Update applies the changes up to end to each entity in order. The first
// failing entity stops the run.
func (r *Runner) Update(ctx context.Context, es []Entity, end time.Time) error {
	for _, e := range es {
		window, err := r.Window(ctx, e, end)
		if err != nil {
			return err
		}
		logging.Info().
			Str("entity", e.Name()).
			Time("start", window.Start).
			Time("end", window.End).
			Msg("Resolved update window")

		err = r.run(ctx, e, FlowUpdate, func() (int64, error) {
			return e.Update(ctx, r.env, window)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Window resolves the recency window of e ending at end: from its last
// successful run, else from the latest insertion batch of its table.
func (r *Runner) Window(ctx context.Context, e Entity, end time.Time) (changeset.Window, error) {
	w := r.env.Warehouse

	var lastSuccess, latestInsertion *time.Time
	run, ok, err := w.LastSuccessfulRun(ctx, e.Name())
	if err != nil {
		return changeset.Window{}, err
	}
	if ok && run.FinishedAt != nil {
		lastSuccess = run.FinishedAt
	}

	at, ok, err := w.MaxInsertion(ctx, e.Name())
	if err != nil {
		return changeset.Window{}, err
	}
	if ok {
		latestInsertion = &at
	}

	return changeset.ResolveWindow(end, lastSuccess, latestInsertion, UpdatePeriod), nil
}

func (r *Runner) run(ctx context.Context, e Entity, flow string, fn func() (int64, error)) error {
	w := r.env.Warehouse
	run, err := w.StartRun(ctx, e.Name(), flow)
	if err != nil {
		return err
	}

	started := time.Now()
	rows, runErr := fn()

	if err := w.FinishRun(context.WithoutCancel(ctx), run, rows, runErr); err != nil {
		logging.Warn().Err(err).Str("run_id", run.ID.String()).Msg("Failed to close run")
	}
	metrics.EntityRuns.WithLabelValues(e.Name(), flow, run.Status).Inc()

	if runErr != nil {
		logging.Error().
			Err(runErr).
			Str("entity", e.Name()).
			Str("flow", flow).
			Str("run_id", run.ID.String()).
			Msg("Entity run failed")
		return fmt.Errorf("%s %s failed: %w", e.Name(), flow, runErr)
	}

	logging.Info().
		Str("entity", e.Name()).
		Str("flow", flow).
		Str("run_id", run.ID.String()).
		Int64("rows", rows).
		Dur("elapsed", time.Since(started)).
		Msg("Entity run complete")
	return nil
}
