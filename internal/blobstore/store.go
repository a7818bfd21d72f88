//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package blobstore reads and writes raw snapshots in object storage.
package blobstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a named object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the object storage surface used by the pipeline.
type Store interface {
	// List returns object names in bucket starting with prefix, sorted.
	List(ctx context.Context, bucket, prefix string) ([]string, error)

	// Read returns the full content of an object.
	Read(ctx context.Context, bucket, name string) ([]byte, error)

	// Write creates or replaces an object.
	Write(ctx context.Context, bucket, name string, data []byte) error

	// Delete removes the named objects; missing names are ignored.
	Delete(ctx context.Context, bucket string, names []string) error
}

// Memory is an in-process Store, used for dry runs and tests.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]map[string][]byte)}
}

// List implements Store.
func (m *Memory) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.buckets[bucket] {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read implements Store.
func (m *Memory) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.buckets[bucket][name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Write implements Store.
func (m *Memory) Write(ctx context.Context, bucket, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		objects = make(map[string][]byte)
		m.buckets[bucket] = objects
	}
	objects[name] = append([]byte(nil), data...)
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, bucket string, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range names {
		delete(m.buckets[bucket], name)
	}
	return nil
}
