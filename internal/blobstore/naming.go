package blobstore

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Snapshot prefixes. Every raw dump is tagged with its extraction range.
const (
	PrefixMovies      = "raw_movie_details"
	PrefixPeople      = "raw_people"
	PrefixCollections = "raw_collection_data"
	PrefixYouTube     = "raw_youtube_video_stats"
	PrefixVimeo       = "raw_vimeo_video_stats"
	PrefixBoxOffice   = "boxofficemojo_data"
)

const snapshotDateLayout = "20060102"

var snapshotPattern = regexp.MustCompile(`^(.+)_(\d{8})_(\d{8})(\.[A-Za-z0-9]+)?$`)

// Snapshot describes a date-range tagged object name.
type Snapshot struct {
	Name   string
	Prefix string
	Start  time.Time
	End    time.Time
}

// SnapshotName builds "{prefix}_{YYYYMMDD}_{YYYYMMDD}.{ext}".
func SnapshotName(prefix string, start, end time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix,
		start.Format(snapshotDateLayout), end.Format(snapshotDateLayout), ext)
}

// BoxOfficeName builds the box office export name for a year range.
func BoxOfficeName(startYear, endYear int) string {
	return fmt.Sprintf("%s_%d%d.csv", PrefixBoxOffice, startYear, endYear)
}

// ParseSnapshot extracts the range from a snapshot name.
func ParseSnapshot(name string) (Snapshot, bool) {
	m := snapshotPattern.FindStringSubmatch(name)
	if m == nil {
		return Snapshot{}, false
	}
	start, err := time.Parse(snapshotDateLayout, m[2])
	if err != nil {
		return Snapshot{}, false
	}
	end, err := time.Parse(snapshotDateLayout, m[3])
	if err != nil {
		return Snapshot{}, false
	}
	return Snapshot{Name: name, Prefix: m[1], Start: start, End: end}, true
}

// LatestBatch returns the names whose range ends last. Names without a
// range are ignored.
func LatestBatch(names []string) []string {
	var latest time.Time
	var out []string
	for _, name := range names {
		snap, ok := ParseSnapshot(name)
		if !ok {
			continue
		}
		switch {
		case snap.End.After(latest):
			latest = snap.End
			out = []string{name}
		case snap.End.Equal(latest):
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// InRange returns the names whose range lies within [start, end].
func InRange(names []string, start, end time.Time) []string {
	start, end = dateOnly(start), dateOnly(end)
	var out []string
	for _, name := range names {
		snap, ok := ParseSnapshot(name)
		if !ok {
			continue
		}
		if !snap.Start.Before(start) && !snap.End.After(end) {
			out = append(out, name)
		}
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
