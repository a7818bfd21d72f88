//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/metrics"
)

// ApplyChanges appends fresh and merges known update-only on the primary
// key, both in one transaction. Either batch may be nil.
//
// Nothing is committed unless both writes succeed, so a failed run can be
// retried: the rows it would have appended are still absent and are
// appended exactly once by the retry.
func (w *Warehouse) ApplyChanges(ctx context.Context, table string, fresh, known *Batch) (int64, error) {
	if fresh.Len() == 0 && known.Len() == 0 {
		return 0, nil
	}

	schema, err := w.GetSchema(ctx, table)
	if err != nil {
		return 0, err
	}
	var keys []string
	if fresh.Len() > 0 {
		if err := schema.checkColumns(fresh.Columns); err != nil {
			return 0, err
		}
	}
	if known.Len() > 0 {
		if keys, err = mergeKeys(schema, known, nil); err != nil {
			return 0, err
		}
	}

	unlock, err := w.lock(ctx, table)
	if err != nil {
		return 0, err
	}
	defer unlock()

	started := time.Now()

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin changes to %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appended, err := w.copyInto(ctx, tx, schema, fresh)
	if err != nil {
		return 0, err
	}
	var updated int64
	if known.Len() > 0 {
		if updated, err = w.mergeInto(ctx, tx, schema, known, MergeUpdateOnly, keys); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit changes to %s: %w", table, err)
	}

	metrics.ObserveWrite(table, string(LoadAppend), appended, started)
	metrics.ObserveWrite(table, string(MergeUpdateOnly), updated, started)
	logging.Info().
		Str("table", table).
		Int64("appended", appended).
		Int64("updated", updated).
		Dur("duration", time.Since(started)).
		Msg("Applied changes")

	return appended + updated, nil
}
