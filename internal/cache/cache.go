//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cache keeps dashboard query results for a bounded time.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

// Store holds encoded entries for a fixed time to live.
type Store interface {
	// Get returns the entry for key; ok is false when absent or stale.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set records data under key.
	Set(ctx context.Context, key string, data []byte) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// QueryOrLoad returns the cached value for key, calling load and caching
// its result when the entry is missing or stale.
func QueryOrLoad[T any](ctx context.Context, store Store, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	data, ok, err := store.Get(ctx, key)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache read failed, loading")
	}
	if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			logging.Debug().Str("key", key).Msg("Cache hit")
			return v, nil
		}
		logging.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}

	v, err := load(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := store.Set(ctx, key, encoded); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return v, nil
}
