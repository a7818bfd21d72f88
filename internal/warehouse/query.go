package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Result is a fully read query result.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Query runs sql and reads every row.
func (w *Warehouse) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	rows, err := w.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	res := &Result{}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		res.Rows = append(res.Rows, values)
	}
	return res, rows.Err()
}

// Int64Keys runs sql and collects its first column, skipping nulls.
func (w *Warehouse) Int64Keys(ctx context.Context, sql string, args ...any) ([]int64, error) {
	rows, err := w.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[*int64])
	if err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	out := make([]int64, 0, len(keys))
	for _, k := range keys {
		if k != nil {
			out = append(out, *k)
		}
	}
	return out, nil
}

// MaxInsertion returns the latest insertion time of table. ok is false
// when the table is empty.
func (w *Warehouse) MaxInsertion(ctx context.Context, table string) (at time.Time, ok bool, err error) {
	var latest *time.Time
	sql := "SELECT MAX(" + ident(InsertionColumn) + ") FROM " + w.Table(table)
	if err := w.db.QueryRow(ctx, sql).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read latest insertion of %s: %w", table, err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

// Count returns the number of rows in table.
func (w *Warehouse) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := w.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+w.Table(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Table returns the sanitized qualified name of table.
func (w *Warehouse) Table(table string) string {
	return pgx.Identifier{w.dataset, table}.Sanitize()
}

// Expand replaces {{table}} placeholders with qualified table names so
// entity queries can be written without knowing the dataset.
func (w *Warehouse) Expand(sql string, tables ...string) string {
	for _, t := range tables {
		sql = strings.ReplaceAll(sql, "{{"+t+"}}", w.Table(t))
	}
	return sql
}
