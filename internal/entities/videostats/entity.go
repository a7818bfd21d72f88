//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package videostats collects YouTube and Vimeo engagement for the
// videos of warehouse movies.
package videostats

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
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/vimeo"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/youtube"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Stats holds the counters of each site keyed by video id.
type Stats map[string]map[string]Counts

// Entity implements the video_stats table.
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
	return "YouTube and Vimeo engagement of movie trailers and clips"
}

// Order returns the run position.
func (e *Entity) Order() int {
	return 30
}

// Table returns the table schema.
func (e *Entity) Table() warehouse.TableSchema {
	return Schema
}

// Initialise collects statistics for the videos of every raw movie and
// reloads the table.
func (e *Entity) Initialise(ctx context.Context, env *entities.Env, skipExtract bool) (int64, error) {
	raw, err := entities.ReadSnapshots[tmdb.Movie](ctx, env.Store, blobstore.PrefixMovies, env.RawBucket)
	if err != nil {
		return 0, err
	}
	keys := Keys(raw)

	if !skipExtract {
		start, end := env.InitRange()
		if _, err := Extract(ctx, env, keys, env.RawBucket, start, end); err != nil {
			return 0, err
		}
	}

	stats, err := Read(ctx, env.Store, env.RawBucket)
	if err != nil {
		return 0, err
	}
	records := Join(keys, stats)
	return env.Warehouse.Load(ctx, Table, Batch(records), warehouse.LoadTruncate)
}

// Update refreshes the videos of the latest raw movie batch and upserts
// them on (movie_id, video_key_id).
func (e *Entity) Update(ctx context.Context, env *entities.Env, window changeset.Window) (int64, error) {
	raw, err := entities.ReadLatest[tmdb.Movie](ctx, env.Store, env.UpdateBucket, blobstore.PrefixMovies)
	if err != nil {
		return 0, err
	}
	keys := Keys(raw)
	if len(keys) == 0 {
		logging.Info().Str("entity", Table).Msg("No new videos")
		return 0, nil
	}

	stats, err := Extract(ctx, env, keys, env.UpdateBucket, window.Start, window.End)
	if err != nil {
		return 0, err
	}
	records := Join(keys, stats)
	if len(records) == 0 {
		return 0, nil
	}
	return env.Warehouse.Merge(ctx, Table, Batch(records), warehouse.MergeUpsert)
}

// Extract fetches statistics for keys from both sites and writes one raw
// snapshot per site.
func Extract(ctx context.Context, env *entities.Env, keys []Key, bucket string, start, end time.Time) (Stats, error) {
	ytIDs := BySite(keys, SiteYouTube)
	vmIDs := BySite(keys, SiteVimeo)
	logging.Info().
		Str("entity", Table).
		Int("youtube", len(ytIDs)).
		Int("vimeo", len(vmIDs)).
		Msg("Collecting video statistics")

	var ytVideos []youtube.Video
	if len(ytIDs) > 0 {
		if env.YouTube == nil {
			return nil, errors.New("youtube client not configured")
		}
		size := min(env.Settings.VideoChunkSize, youtube.MaxIDsPerRequest)
		var err error
		ytVideos, err = extract.FanOut(ctx, env.Settings.Workers, extract.Chunk(ytIDs, size), env.YouTube.Statistics)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch youtube statistics: %w", err)
		}
	}

	var vmVideos []vimeo.Video
	if len(vmIDs) > 0 {
		if env.Vimeo == nil {
			return nil, errors.New("vimeo client not configured")
		}
		var err error
		vmVideos, err = extract.FanOut(ctx, env.Settings.Workers, extract.Chunk(vmIDs, env.Settings.VideoChunkSize),
			func(ctx context.Context, chunk []string) ([]vimeo.Video, error) {
				return extract.Each(ctx, chunk, env.Vimeo.Video)
			})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch vimeo statistics: %w", err)
		}
	}

	ytName := blobstore.SnapshotName(blobstore.PrefixYouTube, start, end, "ndjson")
	if err := blobstore.WriteNDJSON(ctx, env.Store, bucket, ytName, ytVideos); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", ytName, err)
	}
	vmName := blobstore.SnapshotName(blobstore.PrefixVimeo, start, end, "ndjson")
	if err := blobstore.WriteNDJSON(ctx, env.Store, bucket, vmName, vmVideos); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", vmName, err)
	}

	return Stats{
		SiteYouTube: YouTubeCounts(ytVideos),
		SiteVimeo:   VimeoCounts(vmVideos),
	}, nil
}

// Read loads every statistics snapshot in bucket.
func Read(ctx context.Context, store blobstore.Store, bucket string) (Stats, error) {
	yt, err := entities.ReadSnapshots[youtube.Video](ctx, store, blobstore.PrefixYouTube, bucket)
	if err != nil {
		return nil, err
	}
	vm, err := entities.ReadSnapshots[vimeo.Video](ctx, store, blobstore.PrefixVimeo, bucket)
	if err != nil {
		return nil, err
	}
	return Stats{
		SiteYouTube: YouTubeCounts(yt),
		SiteVimeo:   VimeoCounts(vm),
	}, nil
}
