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

// MergeMode selects how staged rows reach the destination.
type MergeMode string

const (
	// MergeUpsert inserts new keys and overwrites every non-key column of
	// existing keys.
	MergeUpsert MergeMode = "upsert"

	// MergeUpdateOnly updates existing keys only. Null incoming values keep
	// the destination value; unmatched rows are ignored.
	MergeUpdateOnly MergeMode = "update"
)

// ParseMergeMode validates a merge mode name.
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(s) {
	case MergeUpsert, MergeUpdateOnly:
		return MergeMode(s), nil
	default:
		return "", fmt.Errorf("unknown merge mode: %s (valid: upsert, update)", s)
	}
}

// Merge stages batch in a transaction scoped temporary table and merges it
// into table on keys. With no keys the table primary key is used. The
// staging table disappears with the transaction whatever the outcome.
func (w *Warehouse) Merge(ctx context.Context, table string, batch *Batch, mode MergeMode, keys ...string) (int64, error) {
	if _, err := ParseMergeMode(string(mode)); err != nil {
		return 0, err
	}

	schema, err := w.GetSchema(ctx, table)
	if err != nil {
		return 0, err
	}
	keys, err = mergeKeys(schema, batch, keys)
	if err != nil {
		return 0, err
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	unlock, err := w.lock(ctx, table)
	if err != nil {
		return 0, err
	}
	defer unlock()

	started := time.Now()

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin merge into %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := w.mergeInto(ctx, tx, schema, batch, mode, keys)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit merge into %s: %w", table, err)
	}

	metrics.ObserveWrite(table, string(mode), n, started)
	logging.Info().
		Str("table", table).
		Str("mode", string(mode)).
		Strs("keys", keys).
		Int("staged", batch.Len()).
		Int64("rows", n).
		Dur("duration", time.Since(started)).
		Msg("Merged table")

	return n, nil
}

// mergeKeys checks batch against schema and returns the merge keys, the
// primary key when none are given.
func mergeKeys(schema TableSchema, batch *Batch, keys []string) ([]string, error) {
	if err := schema.checkColumns(batch.Columns); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = schema.PrimaryKey
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("merge into %s requires key columns", schema.Name)
	}
	for _, k := range keys {
		if !batch.has(k) {
			return nil, fmt.Errorf("batch for %s is missing key column %s", schema.Name, k)
		}
	}
	return keys, nil
}

// mergeInto stages batch in a transaction scoped temporary table and
// merges it into the table of schema inside tx.
func (w *Warehouse) mergeInto(ctx context.Context, tx pgx.Tx, schema TableSchema, batch *Batch, mode MergeMode, keys []string) (int64, error) {
	table := schema.Name
	dest := pgx.Identifier{w.dataset, table}.Sanitize()
	stagingName := "staging_" + table
	staging := ident(stagingName)

	for _, stmt := range buildStagingSQL(staging, dest) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to create staging table for %s: %w", table, err)
		}
	}

	columns, rows := batch.stamped(schema, w.now(), func(i int) any { return int64(i) })
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stagingName},
		append(append([]string(nil), columns...), stagingOrdinal), pgx.CopyFromRows(rows)); err != nil {
		return 0, fmt.Errorf("failed to stage rows for %s: %w", table, err)
	}

	var sql string
	switch mode {
	case MergeUpsert:
		sql = buildUpsertSQL(dest, staging, columns, keys)
	case MergeUpdateOnly:
		sql = buildUpdateOnlySQL(dest, staging, columns, keys)
	}
	if sql == "" {
		return 0, nil
	}

	tag, err := tx.Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("failed to merge into %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}
