//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package entities defines the warehouse entity interface, the shared
// pipeline environment and the runner that drives init and update flows.
package entities

import (
	"context"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/changeset"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/boxoffice"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/vimeo"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/youtube"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Flow names recorded in the run ledger.
const (
	FlowInit   = "init"
	FlowUpdate = "update"
)

// Entity is one warehouse table together with the logic that extracts,
// cleans and loads it.
type Entity interface {
	// Name returns the entity name, which is also its table name.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Order positions the entity in a run; lower runs first.
	Order() int

	// Table returns the destination table schema.
	Table() warehouse.TableSchema

	// Initialise extracts (unless skipExtract), cleans and fully reloads
	// the table. It returns the number of rows written.
	Initialise(ctx context.Context, env *Env, skipExtract bool) (int64, error)

	// Update applies the changes of window to the table.
	Update(ctx context.Context, env *Env, window changeset.Window) (int64, error)
}

// TMDB is the subset of the TMDB client the entities use.
type TMDB interface {
	MovieDetails(ctx context.Context, id int64) (*tmdb.Movie, error)
	PersonDetails(ctx context.Context, id int64) (*tmdb.Person, error)
	Collection(ctx context.Context, id int64) (*tmdb.Collection, error)
	Languages(ctx context.Context) ([]tmdb.Language, error)
	MovieChanges(ctx context.Context, start, end time.Time) ([]int64, error)
	PersonChanges(ctx context.Context, start, end time.Time) ([]int64, error)
	DiscoverMovieIDs(ctx context.Context, year int) ([]int64, error)
}

// BoxOffice fetches weekly domestic charts.
type BoxOffice interface {
	Weekly(ctx context.Context, year, week int) (*boxoffice.Chart, error)
}

// YouTube fetches video statistics in batches.
type YouTube interface {
	Statistics(ctx context.Context, ids []string) ([]youtube.Video, error)
}

// Vimeo fetches video statistics one video at a time.
type Vimeo interface {
	Video(ctx context.Context, key string) (vimeo.Video, error)
}

// Settings holds the tunables of a run.
type Settings struct {
	// Workers bounds concurrent API chunks.
	Workers int

	MovieChunkSize      int
	PeopleChunkSize     int
	CollectionChunkSize int
	VideoChunkSize      int

	// MaxDaysDiff is the box office match cutoff in days.
	MaxDaysDiff int

	// CollectionCutoffYear bounds the collection parts that are counted.
	CollectionCutoffYear int

	BoxOfficeStartYear int
	DiscoverFromYear   int
	DiscoverToYear     int
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Workers:              4,
		MovieChunkSize:       50,
		PeopleChunkSize:      50,
		CollectionChunkSize:  20,
		VideoChunkSize:       youtube.MaxIDsPerRequest,
		MaxDaysDiff:          50,
		CollectionCutoffYear: 2020,
		BoxOfficeStartYear:   2021,
		DiscoverFromYear:     2010,
		DiscoverToYear:       2024,
	}
}

// Env carries the collaborators of every entity. It is built once at
// process start and passed explicitly.
type Env struct {
	Warehouse *warehouse.Warehouse
	Store     blobstore.Store

	// RawBucket holds initial snapshots, UpdateBucket incremental ones.
	RawBucket    string
	UpdateBucket string

	TMDB      TMDB
	BoxOffice BoxOffice
	YouTube   YouTube
	Vimeo     Vimeo

	Settings Settings

	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Clock returns the current time of the run.
func (e *Env) Clock() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// InitRange returns the date range tag of initial snapshots.
func (e *Env) InitRange() (start, end time.Time) {
	return time.Date(e.Settings.DiscoverFromYear, 1, 1, 0, 0, 0, 0, time.UTC), e.Clock()
}

// Buckets returns the raw bucket followed by the update bucket.
func (e *Env) Buckets() []string {
	return []string{e.RawBucket, e.UpdateBucket}
}
