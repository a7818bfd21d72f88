package movie

import "github.com/pgEdge/pgedge-boxoffice/internal/warehouse"

// Table is the movie table name.
const Table = "movie"

// Schema is the movie table.
var Schema = warehouse.TableSchema{
	Name: Table,
	Columns: []warehouse.Column{
		{Name: "movie_id", Type: "BIGINT"},
		{Name: "revenue", Type: "BIGINT", Nullable: true},
		{Name: "budget", Type: "BIGINT", Nullable: true},
		{Name: "imdb_id", Type: "TEXT", Nullable: true},
		{Name: "title", Type: "TEXT", Nullable: true},
		{Name: "original_language", Type: "TEXT", Nullable: true},
		{Name: "release_date", Type: "DATE", Nullable: true},
		{Name: "runtime", Type: "BIGINT", Nullable: true},
		{Name: "status", Type: "TEXT", Nullable: true},
		{Name: "production_companies_count", Type: "BIGINT", Nullable: true},
		{Name: "is_adult", Type: "BOOLEAN", Nullable: true},
		{Name: "is_adaptation", Type: "BOOLEAN", Nullable: true},
		{Name: "genres", Type: "TEXT[]", Nullable: true},
		{Name: "collection_id", Type: "BIGINT", Nullable: true},
		{Name: "cast1_id", Type: "BIGINT", Nullable: true},
		{Name: "cast2_id", Type: "BIGINT", Nullable: true},
		{Name: "director_id", Type: "BIGINT", Nullable: true},
		{Name: "producer_id", Type: "BIGINT", Nullable: true},
		{Name: "video_key_id", Type: "TEXT[]", Nullable: true},
		{Name: "tmdb_popularity", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "tmdb_vote_average", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "tmdb_vote_count", Type: "BIGINT", Nullable: true},
		{Name: warehouse.InsertionColumn, Type: "TIMESTAMPTZ"},
	},
	PrimaryKey: []string{"movie_id"},
}

// Queries over the movie table. {{movie}} expands to the qualified name.
const (
	idsSQL = `SELECT movie_id FROM {{movie}}`

	// PeopleIDsSQL lists every person referenced by a movie.
	PeopleIDsSQL = `
        SELECT cast1_id FROM {{movie}} WHERE cast1_id IS NOT NULL
        UNION
        SELECT cast2_id FROM {{movie}} WHERE cast2_id IS NOT NULL
        UNION
        SELECT director_id FROM {{movie}} WHERE director_id IS NOT NULL
        UNION
        SELECT producer_id FROM {{movie}} WHERE producer_id IS NOT NULL
    `

	// RecentPeopleIDsSQL lists the people referenced by movies written
	// since $1. The latest insertion batch is always included.
	RecentPeopleIDsSQL = `
        WITH recent AS (
            SELECT cast1_id, cast2_id, director_id, producer_id
            FROM {{movie}}
            WHERE insertion_datetime >= LEAST($1::timestamptz,
                (SELECT MAX(insertion_datetime) FROM {{movie}}))
        )
        SELECT cast1_id FROM recent WHERE cast1_id IS NOT NULL
        UNION
        SELECT cast2_id FROM recent WHERE cast2_id IS NOT NULL
        UNION
        SELECT director_id FROM recent WHERE director_id IS NOT NULL
        UNION
        SELECT producer_id FROM recent WHERE producer_id IS NOT NULL
    `

	// CollectionIDsSQL lists every collection referenced by a movie.
	CollectionIDsSQL = `
        SELECT DISTINCT collection_id FROM {{movie}} WHERE collection_id IS NOT NULL
    `
)
