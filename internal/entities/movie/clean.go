package movie

import (
	"strings"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Crew jobs kept on the movie row.
const (
	JobDirector = "Director"
	JobProducer = "Producer"
)

// adaptationMarker flags keywords such as "based on novel or book".
const adaptationMarker = "based on"

// videoTypes are the video types whose keys are kept.
var videoTypes = map[string]bool{
	"Trailer": true,
	"site":    true,
	"Youtube": true,
}

// Record is one cleaned movie row.
type Record struct {
	MovieID                  int64
	Revenue                  *int64
	Budget                   *int64
	IMDbID                   *string
	Title                    *string
	OriginalLanguage         *string
	ReleaseDate              *time.Time
	Runtime                  *int64
	Status                   *string
	ProductionCompaniesCount int64
	IsAdult                  bool
	IsAdaptation             bool
	Genres                   []string
	CollectionID             *int64
	Cast1ID                  *int64
	Cast2ID                  *int64
	DirectorID               *int64
	ProducerID               *int64
	VideoKeyID               []string
	Popularity               *float64
	VoteAverage              *float64
	VoteCount                *int64
}

// CleanStats counts the raw records dropped per rule.
type CleanStats struct {
	Raw           int
	NotTheatrical int
	NoRevenue     int
	Kept          int
}

// IsTheatrical reports whether any country lists a theatrical release.
func IsTheatrical(m tmdb.Movie) bool {
	for _, country := range m.ReleaseDates.Results {
		for _, r := range country.ReleaseDates {
			if r.Type == tmdb.ReleaseTheatrical {
				return true
			}
		}
	}
	return false
}

// Clean flattens one raw movie. Language codes resolve through languages;
// unknown codes become null.
func Clean(m tmdb.Movie, languages map[string]string) Record {
	rec := Record{
		MovieID:                  m.ID,
		Revenue:                  m.Revenue,
		Budget:                   m.Budget,
		IMDbID:                   nonEmpty(m.IMDbID),
		Title:                    strPtr(m.OriginalTitle),
		ReleaseDate:              tmdb.ParseDate(m.ReleaseDate),
		Runtime:                  m.Runtime,
		Status:                   strPtr(m.Status),
		ProductionCompaniesCount: int64(len(m.ProductionCompanies)),
		IsAdult:                  m.Adult,
		Popularity:               m.Popularity,
		VoteAverage:              m.VoteAverage,
		VoteCount:                m.VoteCount,
	}

	if name, ok := languages[m.OriginalLanguage]; ok {
		rec.OriginalLanguage = &name
	}
	if m.BelongsToCollection != nil {
		rec.CollectionID = int64Ptr(m.BelongsToCollection.ID)
	}

	for _, g := range m.Genres {
		rec.Genres = append(rec.Genres, g.Name)
	}

	cast := m.Credits.Cast
	if len(cast) > 0 {
		rec.Cast1ID = int64Ptr(cast[0].ID)
	}
	if len(cast) > 1 {
		rec.Cast2ID = int64Ptr(cast[1].ID)
	}
	for _, c := range m.Credits.Crew {
		switch {
		case c.Job == JobDirector && rec.DirectorID == nil:
			rec.DirectorID = int64Ptr(c.ID)
		case c.Job == JobProducer && rec.ProducerID == nil:
			rec.ProducerID = int64Ptr(c.ID)
		}
	}

	for _, v := range m.Videos.Results {
		if videoTypes[v.Type] {
			rec.VideoKeyID = append(rec.VideoKeyID, v.Key)
		}
	}

	for _, k := range m.Keywords.Keywords {
		if strings.Contains(strings.ToLower(k.Name), adaptationMarker) {
			rec.IsAdaptation = true
			break
		}
	}

	return rec
}

// CleanAll keeps theatrical releases with positive revenue. Duplicate
// ids keep the last record.
func CleanAll(raw []tmdb.Movie, languages map[string]string) ([]Record, CleanStats) {
	stats := CleanStats{Raw: len(raw)}
	index := make(map[int64]int, len(raw))
	out := make([]Record, 0, len(raw))

	for _, m := range raw {
		if !IsTheatrical(m) {
			stats.NotTheatrical++
			continue
		}
		rec := Clean(m, languages)
		if rec.Revenue == nil || *rec.Revenue <= 0 {
			stats.NoRevenue++
			continue
		}
		if i, ok := index[rec.MovieID]; ok {
			out[i] = rec
			continue
		}
		index[rec.MovieID] = len(out)
		out = append(out, rec)
	}

	stats.Kept = len(out)
	return out, stats
}

// LanguageNames maps ISO 639-1 codes to English names.
func LanguageNames(langs []tmdb.Language) map[string]string {
	out := make(map[string]string, len(langs))
	for _, l := range langs {
		if l.EnglishName != "" {
			out[l.ISO6391] = l.EnglishName
		}
	}
	return out
}

var columns = []string{
	"movie_id", "revenue", "budget", "imdb_id", "title", "original_language",
	"release_date", "runtime", "status", "production_companies_count",
	"is_adult", "is_adaptation", "genres", "collection_id", "cast1_id",
	"cast2_id", "director_id", "producer_id", "video_key_id",
	"tmdb_popularity", "tmdb_vote_average", "tmdb_vote_count",
}

// Batch converts records to a warehouse batch.
func Batch(records []Record) *warehouse.Batch {
	b := warehouse.NewBatch(columns...)
	for _, r := range records {
		b.Rows = append(b.Rows, []any{
			r.MovieID, r.Revenue, r.Budget, r.IMDbID, r.Title, r.OriginalLanguage,
			r.ReleaseDate, r.Runtime, r.Status, r.ProductionCompaniesCount,
			r.IsAdult, r.IsAdaptation, r.Genres, r.CollectionID, r.Cast1ID,
			r.Cast2ID, r.DirectorID, r.ProducerID, r.VideoKeyID,
			r.Popularity, r.VoteAverage, r.VoteCount,
		})
	}
	return b
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	return strPtr(*s)
}

func int64Ptr(v int64) *int64 {
	return &v
}
