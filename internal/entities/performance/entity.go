//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package performance scrapes weekly domestic box office charts and
// attaches them to catalogue movies.
package performance

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/changeset"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/extract"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/match"
	"github.com/pgEdge/pgedge-boxoffice/internal/metrics"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/boxoffice"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Match outcome labels.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeRejected  = "rejected"
	OutcomeRerelease = "rerelease"
)

// Entity implements the weekly_domestic_performance table.
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
	return "Weekly domestic box office matched to catalogue movies"
}

// Order returns the run position.
func (e *Entity) Order() int {
	return 50
}

// Table returns the table schema.
func (e *Entity) Table() warehouse.TableSchema {
	return Schema
}

// Initialise scrapes every year from the configured start year and
// rebuilds the table.
func (e *Entity) Initialise(ctx context.Context, env *entities.Env, skipExtract bool) (int64, error) {
	if !skipExtract {
		from, to := env.Settings.BoxOfficeStartYear, env.Clock().Year()
		if _, err := Extract(ctx, env, from, to, env.RawBucket); err != nil {
			return 0, err
		}
	}
	return Rebuild(ctx, env)
}

// Update re-scrapes every year the window touches, so the closing weeks of
// the previous year are fetched once they are published, and rebuilds the
// table from every chart on record.
func (e *Entity) Update(ctx context.Context, env *entities.Env, window changeset.Window) (int64, error) {
	from, to := UpdateYears(window, env.Settings.BoxOfficeStartYear)
	if _, err := Extract(ctx, env, from, to, env.UpdateBucket); err != nil {
		return 0, err
	}
	return Rebuild(ctx, env)
}

// UpdateYears returns the chart years an update over window re-scrapes,
// never before startYear.
func UpdateYears(window changeset.Window, startYear int) (from, to int) {
	to = window.End.Year()
	from = min(window.Start.Year(), to)
	return min(max(from, startYear), to), to
}

type period struct {
	year int
	week int
}

// Extract scrapes every published week of [fromYear, toYear] and writes
// the rows as one CSV. Each year is one pool task.
func Extract(ctx context.Context, env *entities.Env, fromYear, toYear int, bucket string) ([]boxoffice.Chart, error) {
	if env.BoxOffice == nil {
		return nil, errors.New("box office client not configured")
	}

	now := env.Clock()
	var years [][]period
	total := 0
	for year := fromYear; year <= toYear; year++ {
		last := match.LastExtractableWeek(year, now)
		weeks := make([]period, 0, last)
		for week := 1; week <= last; week++ {
			weeks = append(weeks, period{year, week})
		}
		if len(weeks) > 0 {
			years = append(years, weeks)
			total += len(weeks)
		}
	}
	if total == 0 {
		logging.Info().Int("from", fromYear).Int("to", toYear).Msg("No published box office weeks")
		return nil, nil
	}

	progress := extract.NewProgressReporter(Table, int64(total), int64(match.WeeksPerYear))
	charts, err := extract.FanOut(ctx, env.Settings.Workers, years,
		func(ctx context.Context, weeks []period) ([]boxoffice.Chart, error) {
			out := make([]boxoffice.Chart, 0, len(weeks))
			for _, p := range weeks {
				chart, err := env.BoxOffice.Weekly(ctx, p.year, p.week)
				if errors.Is(err, match.ErrInvalidPeriod) {
					logging.Debug().Int("year", p.year).Int("week", p.week).Msg("Skipping unpublished week")
					continue
				}
				if err != nil {
					return nil, err
				}
				out = append(out, *chart)
			}
			progress.Update(int64(len(weeks)))
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to scrape box office: %w", err)
	}
	progress.Done()

	header, rows := ChartRecords(charts)
	data, err := blobstore.EncodeCSV(header, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode box office rows: %w", err)
	}
	name := blobstore.BoxOfficeName(fromYear, toYear)
	if err := env.Store.Write(ctx, bucket, name, data); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}

	logging.Info().
		Str("bucket", bucket).
		Str("name", name).
		Int("weeks", len(charts)).
		Int("rows", len(rows)).
		Msg("Wrote box office export")
	return charts, nil
}

// Rows reads every box office export of the run buckets. Exports in the
// update bucket come last.
func Rows(ctx context.Context, env *entities.Env) ([]match.Row, error) {
	var rows []match.Row
	for _, bucket := range env.Buckets() {
		names, err := entities.Snapshots(ctx, env.Store, bucket, blobstore.PrefixBoxOffice, false)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			data, err := env.Store.Read(ctx, bucket, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", name, err)
			}
			records, err := blobstore.DecodeCSV(data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", name, err)
			}
			parsed, skipped := ParseRows(records)
			if skipped > 0 {
				logging.Warn().Str("name", name).Int("skipped", skipped).Msg("Skipped malformed box office rows")
			}
			rows = append(rows, parsed...)
		}
	}
	return rows, nil
}

// Rebuild matches every stored chart row against the raw movie catalogue
// and replaces the table with the accepted matches.
func Rebuild(ctx context.Context, env *entities.Env) (int64, error) {
	rows, err := Rows(ctx, env)
	if err != nil {
		return 0, err
	}
	raw, err := entities.ReadSnapshots[tmdb.Movie](ctx, env.Store, blobstore.PrefixMovies, env.Buckets()...)
	if err != nil {
		return 0, err
	}

	perfs, stats := match.New(env.Settings.MaxDaysDiff).Match(rows, Catalogue(raw))
	recordOutcomes(stats)
	logging.Info().
		Str("entity", Table).
		Int("rows", stats.Rows).
		Int("matched", stats.Matched).
		Int("no_candidate", stats.NoCandidate).
		Int("rejected", stats.Rejected).
		Int("rereleases", stats.Rereleases).
		Int("bad_period", stats.BadPeriod).
		Msg("Matched box office rows")

	return env.Warehouse.Load(ctx, Table, Batch(perfs), warehouse.LoadTruncate)
}

func recordOutcomes(s match.Stats) {
	metrics.MatchOutcomes.WithLabelValues(OutcomeMatched).Add(float64(s.Matched))
	metrics.MatchOutcomes.WithLabelValues(OutcomeUnmatched).Add(float64(s.NoCandidate + s.BadPeriod))
	metrics.MatchOutcomes.WithLabelValues(OutcomeRejected).Add(float64(s.Rejected))
	metrics.MatchOutcomes.WithLabelValues(OutcomeRerelease).Add(float64(s.Rereleases))
}
