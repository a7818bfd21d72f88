package performance

import "github.com/pgEdge/pgedge-boxoffice/internal/warehouse"

// Table is the weekly domestic performance table name.
const Table = "weekly_domestic_performance"

// Schema is the weekly domestic performance table.
var Schema = warehouse.TableSchema{
	Name: Table,
	Columns: []warehouse.Column{
		{Name: "week_end_date", Type: "DATE"},
		{Name: "movie_id", Type: "BIGINT"},
		{Name: "rank", Type: "BIGINT", Nullable: true},
		{Name: "domestic_gross", Type: "BIGINT", Nullable: true},
		{Name: "domestic_theaters_count", Type: "BIGINT", Nullable: true},
		{Name: warehouse.InsertionColumn, Type: "TIMESTAMPTZ"},
	},
	PrimaryKey: []string{"week_end_date", "movie_id"},
}
