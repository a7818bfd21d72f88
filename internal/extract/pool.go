//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package extract fans API calls out over a bounded worker pool.
package extract

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Chunk splits items into consecutive slices of at most size items.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// ChunkError reports the failure of one chunk.
type ChunkError struct {
	Chunk int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Chunk, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// FanOut runs fn over every chunk with at most workers running at once and
// returns the results in chunk order. Every chunk runs even when another
// fails; if any failed, no results are returned and the error joins every
// ChunkError.
func FanOut[T, R any](ctx context.Context, workers int, chunks [][]T, fn func(ctx context.Context, chunk []T) ([]R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([][]R, len(chunks))
	errs := make([]error, len(chunks))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &ChunkError{Chunk: i, Err: err}
				return nil
			}
			out, err := fn(ctx, chunk)
			if err != nil {
				errs[i] = &ChunkError{Chunk: i, Err: err}
				return nil
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]R, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// Each calls fn for every item of a chunk in order and collects the
// results, stopping at the first error.
func Each[T, R any](ctx context.Context, chunk []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, 0, len(chunk))
	for _, item := range chunk {
		r, err := fn(ctx, item)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
