//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package movie extracts, cleans and loads TMDB movie details.
package movie

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/changeset"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/extract"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// LanguagesObject caches the TMDB language list next to the snapshots.
const LanguagesObject = "tmdb_languages.json"

// Entity implements the movie table.
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
	return "TMDB movies released in theatres with revenue, credits and videos"
}

// Order runs movies first; every other entity derives from them.
func (e *Entity) Order() int {
	return 10
}

// Table returns the table schema.
func (e *Entity) Table() warehouse.TableSchema {
	return Schema
}

// Initialise discovers and fetches every movie of the configured release
// years, then reloads the table from all raw movie snapshots.
func (e *Entity) Initialise(ctx context.Context, env *entities.Env, skipExtract bool) (int64, error) {
	if !skipExtract {
		ids, err := Discover(ctx, env)
		if err != nil {
			return 0, err
		}
		start, end := env.InitRange()
		if _, err := Extract(ctx, env, ids, env.RawBucket, start, end); err != nil {
			return 0, err
		}
	}

	raw, err := entities.ReadSnapshots[tmdb.Movie](ctx, env.Store, blobstore.PrefixMovies, env.RawBucket)
	if err != nil {
		return 0, err
	}
	languages, err := Languages(ctx, env, env.RawBucket)
	if err != nil {
		return 0, err
	}

	records, stats := CleanAll(raw, languages)
	logStats(stats)

	return env.Warehouse.Load(ctx, Table, Batch(records), warehouse.LoadTruncate)
}

// Update fetches the movies TMDB reports as changed within window. New ids
// are appended; known ids are merged without overwriting values with
// nulls. Both writes share one transaction, so a failed run can be rerun.
func (e *Entity) Update(ctx context.Context, env *entities.Env, window changeset.Window) (int64, error) {
	changed, err := env.TMDB.MovieChanges(ctx, window.Start, window.End)
	if err != nil {
		return 0, fmt.Errorf("failed to list movie changes: %w", err)
	}
	existing, err := env.Warehouse.Int64Keys(ctx, env.Warehouse.Expand(idsSQL, Table))
	if err != nil {
		return 0, err
	}

	changedSet := changeset.NewKeySet(changed...)
	cs := changeset.Resolve(changedSet, changeset.NewKeySet(existing...), changedSet)
	logging.Info().
		Str("entity", Table).
		Int("changed", len(changed)).
		Int("to_add", len(cs.ToAdd)).
		Int("to_update", len(cs.ToUpdate)).
		Msg("Resolved movie changes")
	if cs.Empty() {
		return 0, nil
	}

	raw, err := Extract(ctx, env, cs.All(), env.UpdateBucket, window.Start, window.End)
	if err != nil {
		return 0, err
	}
	languages, err := Languages(ctx, env, env.UpdateBucket)
	if err != nil {
		return 0, err
	}

	records, stats := CleanAll(raw, languages)
	logStats(stats)

	added := changeset.NewKeySet(cs.ToAdd...)
	var fresh, known []Record
	for _, r := range records {
		if added.Has(r.MovieID) {
			fresh = append(fresh, r)
		} else {
			known = append(known, r)
		}
	}
	return apply(ctx, env.Warehouse, fresh, known)
}

func apply(ctx context.Context, w *warehouse.Warehouse, fresh, known []Record) (int64, error) {
	return w.ApplyChanges(ctx, Table, Batch(fresh), Batch(known))
}

// Discover lists the distinct movie ids released in the configured years.
func Discover(ctx context.Context, env *entities.Env) ([]int64, error) {
	var years []int
	for y := env.Settings.DiscoverFromYear; y <= env.Settings.DiscoverToYear; y++ {
		years = append(years, y)
	}

	ids, err := extract.FanOut(ctx, env.Settings.Workers, extract.Chunk(years, 1),
		func(ctx context.Context, chunk []int) ([]int64, error) {
			return env.TMDB.DiscoverMovieIDs(ctx, chunk[0])
		})
	if err != nil {
		return nil, fmt.Errorf("failed to discover movies: %w", err)
	}

	sorted := changeset.Sorted(changeset.NewKeySet(ids...))
	logging.Info().Int("movies", len(sorted)).Msg("Discovered movies")
	return sorted, nil
}

// Extract fetches the details of ids and writes them as one raw snapshot
// tagged with [start, end] into bucket.
func Extract(ctx context.Context, env *entities.Env, ids []int64, bucket string, start, end time.Time) ([]tmdb.Movie, error) {
	raw, err := entities.Fetch(ctx, env, Table, ids, env.Settings.MovieChunkSize, env.TMDB.MovieDetails)
	if err != nil {
		return nil, err
	}

	name := blobstore.SnapshotName(blobstore.PrefixMovies, start, end, "ndjson")
	if err := blobstore.WriteNDJSON(ctx, env.Store, bucket, name, raw); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}
	logging.Info().Str("bucket", bucket).Str("object", name).Int("records", len(raw)).Msg("Wrote snapshot")
	return raw, nil
}

// Languages returns the language names, fetching them from TMDB and
// caching them in bucket when a client is configured, and reading the
// cached list otherwise. A missing list resolves nothing.
func Languages(ctx context.Context, env *entities.Env, bucket string) (map[string]string, error) {
	var langs []tmdb.Language
	if env.TMDB != nil {
		var err error
		langs, err = env.TMDB.Languages(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch languages: %w", err)
		}
		if err := blobstore.WriteJSON(ctx, env.Store, bucket, LanguagesObject, langs); err != nil {
			return nil, fmt.Errorf("failed to cache languages: %w", err)
		}
		return LanguageNames(langs), nil
	}

	err := blobstore.ReadJSON(ctx, env.Store, bucket, LanguagesObject, &langs)
	if errors.Is(err, blobstore.ErrNotFound) {
		logging.Warn().Str("bucket", bucket).Msg("No cached languages, original_language will be null")
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return LanguageNames(langs), nil
}

func logStats(s CleanStats) {
	logging.Info().
		Str("entity", Table).
		Int("raw", s.Raw).
		Int("not_theatrical", s.NotTheatrical).
		Int("no_revenue", s.NoRevenue).
		Int("kept", s.Kept).
		Msg("Cleaned movies")
}
