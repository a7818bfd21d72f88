//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTableNotFound is returned when the destination table does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrTableNotEmpty is returned by an empty-only load into a populated table.
	ErrTableNotEmpty = errors.New("table is not empty")

	// ErrUnknownColumn is returned when a batch carries a column the
	// destination does not declare.
	ErrUnknownColumn = errors.New("unknown column")
)

// InsertionColumn is stamped with the processing time of every written row.
const InsertionColumn = "insertion_datetime"

// Locker serializes writers per table.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func() error, err error)
}

// Warehouse writes entity batches into one dataset (PostgreSQL schema).
type Warehouse struct {
	db      DB
	dataset string
	locker  Locker
	now     func() time.Time
}

// Option configures a Warehouse.
type Option func(*Warehouse)

// WithLocker makes every load and merge hold the table lock.
func WithLocker(l Locker) Option {
	return func(w *Warehouse) { w.locker = l }
}

// WithClock overrides the processing time source.
func WithClock(now func() time.Time) Option {
	return func(w *Warehouse) { w.now = now }
}

// New creates a Warehouse over db writing into dataset.
func New(db DB, dataset string, opts ...Option) *Warehouse {
	w := &Warehouse{
		db:      db,
		dataset: dataset,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dataset returns the schema name the warehouse writes into.
func (w *Warehouse) Dataset() string {
	return w.dataset
}

// DB returns the underlying database handle.
func (w *Warehouse) DB() DB {
	return w.db
}

func (w *Warehouse) lock(ctx context.Context, table string) (func() error, error) {
	if w.locker == nil {
		return func() error { return nil }, nil
	}
	return w.locker.Lock(ctx, w.dataset+"."+table)
}
