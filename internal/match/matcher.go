//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package match

import (
	"sort"
	"time"
)

// DefaultMaxDaysDiff is the largest accepted distance in days between the
// estimated and catalogued release dates.
const DefaultMaxDaysDiff = 50

// Row is one cleaned weekly chart entry.
type Row struct {
	Year  int
	Week  int
	Title string
	Rank  int64
	Gross int64

	Theaters int64

	// Weeks is the number of weeks the title has been in release.
	Weeks int64
}

// Movie is a catalogue candidate.
type Movie struct {
	MovieID     int64
	Title       string
	ReleaseDate time.Time
}

// Performance is an accepted match.
type Performance struct {
	WeekEndDate           time.Time
	MovieID               int64
	Rank                  int64
	DomesticGross         int64
	DomesticTheatersCount int64

	// DaysDiff is the distance that won the match.
	DaysDiff int
}

// Stats counts rows per outcome.
type Stats struct {
	Rows        int
	Rereleases  int
	BadPeriod   int
	NoCandidate int
	Rejected    int
	Matched     int
}

// Matcher pairs chart rows with catalogue movies by normalized title,
// choosing the candidate whose release date is closest to the estimated
// release of the chart run.
type Matcher struct {
	MaxDaysDiff int
}

// New creates a Matcher with the given cutoff.
func New(maxDaysDiff int) *Matcher {
	return &Matcher{MaxDaysDiff: maxDaysDiff}
}

type groupKey struct {
	title   string
	weekEnd time.Time
}

type candidate struct {
	perf  Performance
	order int
}

// Match returns one performance row per (normalized title, week end date)
// group whose best distance is within the cutoff. Output is ordered by
// week end date then rank.
func (m *Matcher) Match(rows []Row, catalogue []Movie) ([]Performance, Stats) {
	byTitle := make(map[string][]Movie)
	for _, mv := range catalogue {
		if mv.ReleaseDate.IsZero() {
			continue
		}
		key := NormalizeTitle(mv.Title)
		byTitle[key] = append(byTitle[key], mv)
	}

	stats := Stats{Rows: len(rows)}
	best := make(map[groupKey]*candidate)
	order := 0

	for _, row := range rows {
		if IsRerelease(row.Title) {
			stats.Rereleases++
			continue
		}
		weekEnd, err := WeekEndDate(row.Year, row.Week)
		if err != nil {
			stats.BadPeriod++
			continue
		}
		title := NormalizeTitle(row.Title)
		movies := byTitle[title]
		if len(movies) == 0 {
			stats.NoCandidate++
			continue
		}

		likely := weekEnd.AddDate(0, 0, -7*int(row.Weeks+1))
		key := groupKey{title: title, weekEnd: weekEnd}
		for _, mv := range movies {
			diff := daysBetween(likely, mv.ReleaseDate)
			cur, ok := best[key]
			if ok && cur.perf.DaysDiff <= diff {
				continue
			}
			if !ok {
				cur = &candidate{order: order}
				order++
				best[key] = cur
			}
			cur.perf = Performance{
				WeekEndDate:           weekEnd,
				MovieID:               mv.MovieID,
				Rank:                  row.Rank,
				DomesticGross:         row.Gross,
				DomesticTheatersCount: row.Theaters,
				DaysDiff:              diff,
			}
		}
	}

	accepted := make([]candidate, 0, len(best))
	for _, c := range best {
		if c.perf.DaysDiff > m.MaxDaysDiff {
			stats.Rejected++
			continue
		}
		accepted = append(accepted, *c)
	}
	sort.Slice(accepted, func(i, j int) bool {
		a, b := accepted[i].perf, accepted[j].perf
		if !a.WeekEndDate.Equal(b.WeekEndDate) {
			return a.WeekEndDate.Before(b.WeekEndDate)
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return accepted[i].order < accepted[j].order
	})

	out := make([]Performance, len(accepted))
	for i, c := range accepted {
		out[i] = c.perf
	}
	stats.Matched = len(out)
	return out, stats
}
