package collection

import (
	"sort"
	"strings"

	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// mediaMovie is the part media type counted towards a collection.
const mediaMovie = "movie"

// Record is one cleaned collection row.
type Record struct {
	CollectionID int64
	Name         string

	// MoviesBeforeCutoff counts movie parts released before the cutoff year.
	MoviesBeforeCutoff int64

	// AvgPopularityBeforeCutoff is null when no part qualifies.
	AvgPopularityBeforeCutoff *float64
}

// Clean summarises the parts of c released before cutoffYear.
func Clean(c tmdb.Collection, cutoffYear int) Record {
	rec := Record{
		CollectionID: c.ID,
		Name:         strings.TrimSpace(c.Name),
	}

	var sum float64
	for _, p := range c.Parts {
		if p.MediaType != mediaMovie {
			continue
		}
		released := tmdb.ParseDate(p.ReleaseDate)
		if released == nil || released.Year() >= cutoffYear {
			continue
		}
		rec.MoviesBeforeCutoff++
		if p.Popularity != nil {
			sum += *p.Popularity
		}
	}
	if rec.MoviesBeforeCutoff > 0 {
		avg := sum / float64(rec.MoviesBeforeCutoff)
		rec.AvgPopularityBeforeCutoff = &avg
	}
	return rec
}

// CleanAll cleans a raw snapshot keyed by collection id, ordered by id.
func CleanAll(raw map[string]tmdb.Collection, cutoffYear int) []Record {
	out := make([]Record, 0, len(raw))
	for _, c := range raw {
		out = append(out, Clean(c, cutoffYear))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CollectionID < out[j].CollectionID })
	return out
}

var columns = []string{
	"collection_id", "name", "number_movies_before_cutoff", "avg_tmdb_popularity_before_cutoff",
}

// Batch converts records to a warehouse batch.
func Batch(records []Record) *warehouse.Batch {
	b := warehouse.NewBatch(columns...)
	for _, r := range records {
		b.Rows = append(b.Rows, []any{
			r.CollectionID, r.Name, r.MoviesBeforeCutoff, r.AvgPopularityBeforeCutoff,
		})
	}
	return b
}
