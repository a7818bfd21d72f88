package videostats

import "github.com/pgEdge/pgedge-boxoffice/internal/warehouse"

// Table is the video statistics table name.
const Table = "video_stats"

// Schema is the video statistics table.
var Schema = warehouse.TableSchema{
	Name: Table,
	Columns: []warehouse.Column{
		{Name: "movie_id", Type: "BIGINT"},
		{Name: "video_key_id", Type: "TEXT"},
		{Name: "video_site", Type: "TEXT", Nullable: true},
		{Name: "video_type", Type: "TEXT", Nullable: true},
		{Name: "published_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "view_count", Type: "BIGINT", Nullable: true},
		{Name: "like_count", Type: "BIGINT", Nullable: true},
		{Name: "favourite_count", Type: "BIGINT", Nullable: true},
		{Name: "comment_count", Type: "BIGINT", Nullable: true},
		{Name: warehouse.InsertionColumn, Type: "TIMESTAMPTZ"},
	},
	PrimaryKey: []string{"movie_id", "video_key_id"},
}
