//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package changeset decides which entity keys an incremental run adds and
// which it refreshes.
package changeset

import (
	"cmp"
	"slices"
	"time"
)

// KeySet is a set of entity keys.
type KeySet[K comparable] map[K]struct{}

// NewKeySet builds a set from keys.
func NewKeySet[K comparable](keys ...K) KeySet[K] {
	s := make(KeySet[K], len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in the set.
func (s KeySet[K]) Has(k K) bool {
	_, ok := s[k]
	return ok
}

// Add inserts keys.
func (s KeySet[K]) Add(keys ...K) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Sorted returns the keys in ascending order.
func Sorted[K cmp.Ordered](s KeySet[K]) []K {
	out := make([]K, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ChangeSet is the outcome of a resolution. Both lists are sorted and
// disjoint.
type ChangeSet[K cmp.Ordered] struct {
	// ToAdd holds source keys the warehouse does not have yet.
	ToAdd []K

	// ToUpdate holds warehouse keys touched within the recency window.
	ToUpdate []K
}

// Empty reports whether there is nothing to do.
func (c ChangeSet[K]) Empty() bool {
	return len(c.ToAdd) == 0 && len(c.ToUpdate) == 0
}

// All returns ToAdd followed by ToUpdate.
func (c ChangeSet[K]) All() []K {
	return append(append([]K(nil), c.ToAdd...), c.ToUpdate...)
}

// Resolve computes source minus warehouse as additions and warehouse
// intersected with recent as updates. Resolving the same inputs twice
// yields the same change set.
func Resolve[K cmp.Ordered](source, warehouse, recent KeySet[K]) ChangeSet[K] {
	var cs ChangeSet[K]
	for k := range source {
		if !warehouse.Has(k) {
			cs.ToAdd = append(cs.ToAdd, k)
		}
	}
	for k := range recent {
		if warehouse.Has(k) {
			cs.ToUpdate = append(cs.ToUpdate, k)
		}
	}
	slices.Sort(cs.ToAdd)
	slices.Sort(cs.ToUpdate)
	return cs
}

// Window is the recency range [Start, End) of an incremental run.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ResolveWindow picks the recency window ending at end. It starts at the
// last successful run of the entity; without one it starts at the latest
// insertion batch; with an empty table it covers the fallback period.
func ResolveWindow(end time.Time, lastSuccess, latestInsertion *time.Time, fallback time.Duration) Window {
	switch {
	case lastSuccess != nil && lastSuccess.Before(end):
		return Window{Start: *lastSuccess, End: end}
	case latestInsertion != nil && !latestInsertion.After(end):
		return Window{Start: *latestInsertion, End: end}
	default:
		return Window{Start: end.Add(-fallback), End: end}
	}
}
