package person

import "github.com/pgEdge/pgedge-boxoffice/internal/warehouse"

// Table is the people table name.
const Table = "people"

// Schema is the people table.
var Schema = warehouse.TableSchema{
	Name: Table,
	Columns: []warehouse.Column{
		{Name: "people_id", Type: "BIGINT"},
		{Name: "name", Type: "TEXT", Nullable: true},
		{Name: "birthday", Type: "DATE", Nullable: true},
		{Name: "gender", Type: "BIGINT", Nullable: true},
		{Name: "known_for", Type: "TEXT", Nullable: true},
		{Name: "tmdb_popularity", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "total_number_cast_credits", Type: "BIGINT", Nullable: true},
		{Name: "total_number_crew_credits", Type: "BIGINT", Nullable: true},
		{Name: warehouse.InsertionColumn, Type: "TIMESTAMPTZ"},
	},
	PrimaryKey: []string{"people_id"},
}

const idsSQL = `SELECT people_id FROM {{people}}`
