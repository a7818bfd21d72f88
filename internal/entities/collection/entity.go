// Package collection extracts, cleans and loads the TMDB collections that
// warehouse movies belong to.
package collection

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/changeset"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities/movie"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Entity implements the collection table.
type Entity struct{}

func init() {
	entities.Register(&Entity{})
}

// Name returns the entity name.
func (e *Entity) Name() string {
	return Table
}

// Description returns a human-readable description.
func (e *Entity) Description() string {
	return "Movie collections with counts and popularity of earlier parts"
}

// Order returns the run position.
func (e *Entity) Order() int {
	return 40
}

// Table returns the table schema.
func (e *Entity) Table() warehouse.TableSchema {
	return Schema
}

// Initialise fetches every collection referenced by the movie table, then
// reloads the table from all raw collection snapshots.
func (e *Entity) Initialise(ctx context.Context, env *entities.Env, skipExtract bool) (int64, error) {
	if !skipExtract {
		w := env.Warehouse
		ids, err := w.Int64Keys(ctx, w.Expand(movie.CollectionIDsSQL, movie.Table))
		if err != nil {
			return 0, err
		}
		start, end := env.InitRange()
		if _, err := Extract(ctx, env, ids, env.RawBucket, start, end); err != nil {
			return 0, err
		}
	}

	raw, err := Read(ctx, env.Store, env.RawBucket)
	if err != nil {
		return 0, err
	}
	records := CleanAll(raw, env.Settings.CollectionCutoffYear)
	return env.Warehouse.Load(ctx, Table, Batch(records), warehouse.LoadTruncate)
}

// Update appends the collections referenced by movies but missing from
// the table.
func (e *Entity) Update(ctx context.Context, env *entities.Env, window changeset.Window) (int64, error) {
	w := env.Warehouse
	referenced, err := w.Int64Keys(ctx, w.Expand(movie.CollectionIDsSQL, movie.Table))
	if err != nil {
		return 0, err
	}
	existing, err := w.Int64Keys(ctx, w.Expand(idsSQL, Table))
	if err != nil {
		return 0, err
	}

	cs := changeset.Resolve(changeset.NewKeySet(referenced...), changeset.NewKeySet(existing...), nil)
	logging.Info().
		Str("entity", Table).
		Int("referenced", len(referenced)).
		Int("to_add", len(cs.ToAdd)).
		Msg("Resolved new collections")
	if len(cs.ToAdd) == 0 {
		return 0, nil
	}

	raw, err := Extract(ctx, env, cs.ToAdd, env.UpdateBucket, window.Start, window.End)
	if err != nil {
		return 0, err
	}
	records := CleanAll(raw, env.Settings.CollectionCutoffYear)
	if len(records) == 0 {
		return 0, nil
	}
	return w.Load(ctx, Table, Batch(records), warehouse.LoadAppend)
}

// Extract fetches ids and writes them as one JSON object keyed by id.
func Extract(ctx context.Context, env *entities.Env, ids []int64, bucket string, start, end time.Time) (map[string]tmdb.Collection, error) {
	fetched, err := entities.Fetch(ctx, env, Table, ids, env.Settings.CollectionChunkSize, env.TMDB.Collection)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]tmdb.Collection, len(fetched))
	for _, c := range fetched {
		raw[strconv.FormatInt(c.ID, 10)] = c
	}

	name := blobstore.SnapshotName(blobstore.PrefixCollections, start, end, "json")
	if err := blobstore.WriteJSON(ctx, env.Store, bucket, name, raw); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}
	logging.Info().Str("bucket", bucket).Str("object", name).Int("records", len(raw)).Msg("Wrote snapshot")
	return raw, nil
}

// Read merges every collection snapshot in bucket; later snapshots win.
func Read(ctx context.Context, store blobstore.Store, bucket string) (map[string]tmdb.Collection, error) {
	names, err := entities.Snapshots(ctx, store, bucket, blobstore.PrefixCollections, false)
	if err != nil {
		return nil, err
	}

	out := make(map[string]tmdb.Collection)
	for _, name := range names {
		var snap map[string]tmdb.Collection
		if err := blobstore.ReadJSON(ctx, store, bucket, name, &snap); err != nil {
			return nil, err
		}
		for id, c := range snap {
			out[id] = c
		}
	}
	return out, nil
}
