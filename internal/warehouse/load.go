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

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/metrics"
)

// LoadMode controls how Load treats existing rows.
type LoadMode string

const (
	// LoadAppend adds rows without touching existing ones.
	LoadAppend LoadMode = "append"

	// LoadTruncate replaces the table contents atomically.
	LoadTruncate LoadMode = "truncate"

	// LoadEmptyOnly refuses to write into a populated table.
	LoadEmptyOnly LoadMode = "empty"
)

// ParseLoadMode validates a load mode name.
func ParseLoadMode(s string) (LoadMode, error) {
	switch LoadMode(s) {
	case LoadAppend, LoadTruncate, LoadEmptyOnly:
		return LoadMode(s), nil
	default:
		return "", fmt.Errorf("unknown load mode: %s (valid: append, truncate, empty)", s)
	}
}

// Load writes batch into table and returns the number of rows written.
func (w *Warehouse) Load(ctx context.Context, table string, batch *Batch, mode LoadMode) (int64, error) {
	if _, err := ParseLoadMode(string(mode)); err != nil {
		return 0, err
	}

	schema, err := w.GetSchema(ctx, table)
	if err != nil {
		return 0, err
	}
	if err := schema.checkColumns(batch.Columns); err != nil {
		return 0, err
	}

	unlock, err := w.lock(ctx, table)
	if err != nil {
		return 0, err
	}
	defer unlock()

	started := time.Now()
	dest := pgx.Identifier{w.dataset, table}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin load of %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	switch mode {
	case LoadTruncate:
		if _, err := tx.Exec(ctx, "TRUNCATE "+dest.Sanitize()); err != nil {
			return 0, fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	case LoadEmptyOnly:
		var populated bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+dest.Sanitize()+")").Scan(&populated); err != nil {
			return 0, fmt.Errorf("failed to check %s: %w", table, err)
		}
		if populated {
			return 0, fmt.Errorf("%w: %s", ErrTableNotEmpty, table)
		}
	}

	n, err := w.copyInto(ctx, tx, schema, batch)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit load of %s: %w", table, err)
	}

	metrics.ObserveWrite(table, string(mode), n, started)
	logging.Info().
		Str("table", table).
		Str("mode", string(mode)).
		Int64("rows", n).
		Dur("duration", time.Since(started)).
		Msg("Loaded table")

	return n, nil
}

// copyInto appends batch to the table of schema inside tx.
func (w *Warehouse) copyInto(ctx context.Context, tx pgx.Tx, schema TableSchema, batch *Batch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}
	columns, rows := batch.stamped(schema, w.now())
	n, err := tx.CopyFrom(ctx, pgx.Identifier{w.dataset, schema.Name}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy into %s: %w", schema.Name, err)
	}
	return n, nil
}
