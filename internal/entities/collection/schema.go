package collection

import "github.com/pgEdge/pgedge-boxoffice/internal/warehouse"

// Table is the collection table name.
const Table = "collection"

// Schema is the collection table.
var Schema = warehouse.TableSchema{
	Name: Table,
	Columns: []warehouse.Column{
		{Name: "collection_id", Type: "BIGINT"},
		{Name: "name", Type: "TEXT", Nullable: true},
		{Name: "number_movies_before_cutoff", Type: "BIGINT", Nullable: true},
		{Name: "avg_tmdb_popularity_before_cutoff", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: warehouse.InsertionColumn, Type: "TIMESTAMPTZ"},
	},
	PrimaryKey: []string{"collection_id"},
}

const idsSQL = `SELECT collection_id FROM {{collection}}`
