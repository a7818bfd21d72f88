// Package person extracts, cleans and loads the TMDB people credited on
// warehouse movies.
package person

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/changeset"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities/movie"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Entity implements the people table.
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
	return "Lead cast, directors and producers of warehouse movies"
}

// Order returns the run position.
func (e *Entity) Order() int {
	return 20
}

// Table returns the table schema.
func (e *Entity) Table() warehouse.TableSchema {
	return Schema
}

// Initialise fetches every person referenced by the movie table, then
// reloads the table from all raw people snapshots.
func (e *Entity) Initialise(ctx context.Context, env *entities.Env, skipExtract bool) (int64, error) {
	if !skipExtract {
		w := env.Warehouse
		ids, err := w.Int64Keys(ctx, w.Expand(movie.PeopleIDsSQL, movie.Table))
		if err != nil {
			return 0, err
		}
		start, end := env.InitRange()
		if _, err := Extract(ctx, env, ids, env.RawBucket, start, end); err != nil {
			return 0, err
		}
	}

	raw, err := entities.ReadSnapshots[tmdb.Person](ctx, env.Store, blobstore.PrefixPeople, env.RawBucket)
	if err != nil {
		return 0, err
	}
	records := CleanAll(raw)
	return env.Warehouse.Load(ctx, Table, Batch(records), warehouse.LoadTruncate)
}

// Update appends people newly referenced by movies written in window and
// merges the known people TMDB reports as changed, in one transaction.
func (e *Entity) Update(ctx context.Context, env *entities.Env, window changeset.Window) (int64, error) {
	w := env.Warehouse
	recent, err := w.Int64Keys(ctx, w.Expand(movie.RecentPeopleIDsSQL, movie.Table), window.Start)
	if err != nil {
		return 0, err
	}
	existing, err := w.Int64Keys(ctx, w.Expand(idsSQL, Table))
	if err != nil {
		return 0, err
	}
	changed, err := env.TMDB.PersonChanges(ctx, window.Start, window.End)
	if err != nil {
		return 0, fmt.Errorf("failed to list person changes: %w", err)
	}

	cs := changeset.Resolve(
		changeset.NewKeySet(recent...),
		changeset.NewKeySet(existing...),
		changeset.NewKeySet(changed...),
	)
	logging.Info().
		Str("entity", Table).
		Int("referenced", len(recent)).
		Int("changed", len(changed)).
		Int("to_add", len(cs.ToAdd)).
		Int("to_update", len(cs.ToUpdate)).
		Msg("Resolved people changes")
	if cs.Empty() {
		return 0, nil
	}

	raw, err := Extract(ctx, env, cs.All(), env.UpdateBucket, window.Start, window.End)
	if err != nil {
		return 0, err
	}

	added := changeset.NewKeySet(cs.ToAdd...)
	var fresh, known []Record
	for _, r := range CleanAll(raw) {
		if added.Has(r.PeopleID) {
			fresh = append(fresh, r)
		} else {
			known = append(known, r)
		}
	}

	return w.ApplyChanges(ctx, Table, Batch(fresh), Batch(known))
}

// Extract fetches the details of ids and writes them as one raw snapshot.
func Extract(ctx context.Context, env *entities.Env, ids []int64, bucket string, start, end time.Time) ([]tmdb.Person, error) {
	raw, err := entities.Fetch(ctx, env, Table, ids, env.Settings.PeopleChunkSize, env.TMDB.PersonDetails)
	if err != nil {
		return nil, err
	}

	name := blobstore.SnapshotName(blobstore.PrefixPeople, start, end, "ndjson")
	if err := blobstore.WriteNDJSON(ctx, env.Store, bucket, name, raw); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}
	logging.Info().Str("bucket", bucket).Str("object", name).Int("records", len(raw)).Msg("Wrote snapshot")
	return raw, nil
}
