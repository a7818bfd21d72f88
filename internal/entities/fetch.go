package entities

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/extract"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources"
)

// Fetch retrieves every id with get, chunkSize ids per pool task. Ids the
// source reports as not found are skipped. Any other failure aborts the
// fetch without returning partial results.
func Fetch[K comparable, R any](ctx context.Context, env *Env, entity string, ids []K, chunkSize int,
	get func(ctx context.Context, id K) (*R, error)) ([]R, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	progress := extract.NewProgressReporter(entity, int64(len(ids)), int64(max(len(ids)/10, 1)))
	out, err := extract.FanOut(ctx, env.Settings.Workers, extract.Chunk(ids, chunkSize),
		func(ctx context.Context, chunk []K) ([]R, error) {
			recs := make([]R, 0, len(chunk))
			for _, id := range chunk {
				rec, err := get(ctx, id)
				if sources.IsStatus(err, http.StatusNotFound) {
					logging.Debug().Str("entity", entity).Any("id", id).Msg("Skipping record missing upstream")
					continue
				}
				if err != nil {
					return nil, err
				}
				recs = append(recs, *rec)
			}
			progress.Update(int64(len(chunk)))
			return recs, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", entity, err)
	}
	progress.Done()
	return out, nil
}

// Snapshots lists the snapshot names under prefix in bucket. With latest
// only the most recent batch is returned.
func Snapshots(ctx context.Context, store blobstore.Store, bucket, prefix string, latest bool) ([]string, error) {
	names, err := store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, err)
	}
	if latest {
		names = blobstore.LatestBatch(names)
	}
	return names, nil
}

// ReadSnapshots decodes every NDJSON snapshot under prefix in each bucket,
// in bucket then name order.
func ReadSnapshots[T any](ctx context.Context, store blobstore.Store, prefix string, buckets ...string) ([]T, error) {
	var out []T
	for _, bucket := range buckets {
		names, err := Snapshots(ctx, store, bucket, prefix, false)
		if err != nil {
			return nil, err
		}
		recs, err := blobstore.ReadNDJSON[T](ctx, store, bucket, names)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s snapshots: %w", prefix, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ReadLatest decodes the NDJSON snapshots of the latest batch under prefix.
func ReadLatest[T any](ctx context.Context, store blobstore.Store, bucket, prefix string) ([]T, error) {
	names, err := Snapshots(ctx, store, bucket, prefix, true)
	if err != nil {
		return nil, err
	}
	recs, err := blobstore.ReadNDJSON[T](ctx, store, bucket, names)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s snapshots: %w", prefix, err)
	}
	return recs, nil
}

// DedupeLast keeps one item per key. The last occurrence wins and keeps
// the position of the first.
func DedupeLast[T any, K comparable](items []T, key func(T) K) []T {
	index := make(map[K]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}
