package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// TableSchema describes a warehouse table.
type TableSchema struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
}

// ColumnNames returns the column names in declaration order.
func (s TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table declares column name.
func (s TableSchema) Has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// checkColumns verifies every name is declared by the table.
func (s TableSchema) checkColumns(names []string) error {
	for _, name := range names {
		if !s.Has(name) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, s.Name, name)
		}
	}
	return nil
}

const columnsQuery = `
SELECT column_name, data_type, is_nullable = 'YES'
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

const primaryKeyQuery = `
SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
 AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = $1 AND tc.table_name = $2
ORDER BY kcu.ordinal_position`

// GetSchema fetches the live column list and primary key of table.
func (w *Warehouse) GetSchema(ctx context.Context, table string) (TableSchema, error) {
	rows, err := w.db.Query(ctx, columnsQuery, w.dataset, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("failed to fetch schema of %s: %w", table, err)
	}
	schema := TableSchema{Name: table}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			rows.Close()
			return TableSchema{}, fmt.Errorf("failed to scan schema of %s: %w", table, err)
		}
		schema.Columns = append(schema.Columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return TableSchema{}, fmt.Errorf("failed to fetch schema of %s: %w", table, err)
	}
	if len(schema.Columns) == 0 {
		return TableSchema{}, fmt.Errorf("%w: %s.%s", ErrTableNotFound, w.dataset, table)
	}

	keys, err := w.db.Query(ctx, primaryKeyQuery, w.dataset, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("failed to fetch primary key of %s: %w", table, err)
	}
	defer keys.Close()
	for keys.Next() {
		var name string
		if err := keys.Scan(&name); err != nil {
			return TableSchema{}, fmt.Errorf("failed to scan primary key of %s: %w", table, err)
		}
		schema.PrimaryKey = append(schema.PrimaryKey, name)
	}
	return schema, keys.Err()
}

// CreateDataset creates the warehouse schema if needed.
func (w *Warehouse) CreateDataset(ctx context.Context) error {
	sql := "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{w.dataset}.Sanitize()
	if _, err := w.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", w.dataset, err)
	}
	logging.Info().Str("dataset", w.dataset).Msg("Dataset ready")
	return nil
}

// CreateTable creates table from its definition if it does not exist.
func (w *Warehouse) CreateTable(ctx context.Context, schema TableSchema) error {
	if _, err := w.db.Exec(ctx, buildCreateTableSQL(w.dataset, schema)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", schema.Name, err)
	}
	logging.Debug().Str("table", schema.Name).Msg("Table ready")
	return nil
}

// DeleteTable drops table if it exists.
func (w *Warehouse) DeleteTable(ctx context.Context, table string) error {
	sql := "DROP TABLE IF EXISTS " + pgx.Identifier{w.dataset, table}.Sanitize()
	if _, err := w.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	logging.Info().Str("table", table).Msg("Dropped table")
	return nil
}

// TableExists reports whether table exists in the dataset.
func (w *Warehouse) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := w.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_schema = $1 AND table_name = $2
        )
    `, w.dataset, table).Scan(&exists)
	return exists, err
}

func buildCreateTableSQL(dataset string, schema TableSchema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgx.Identifier{dataset, schema.Name}.Sanitize())
	b.WriteString(" (\n")
	for i, c := range schema.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("    ")
		b.WriteString(pgx.Identifier{c.Name}.Sanitize())
		b.WriteString(" ")
		b.WriteString(c.Type)
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	if len(schema.PrimaryKey) > 0 {
		b.WriteString(",\n    PRIMARY KEY (")
		b.WriteString(identList(schema.PrimaryKey))
		b.WriteString(")")
	}
	b.WriteString("\n)")
	return b.String()
}
