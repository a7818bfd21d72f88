package person

import (
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Record is one cleaned person row.
type Record struct {
	PeopleID    int64
	Name        *string
	Birthday    *time.Time
	Gender      *int64
	KnownFor    *string
	Popularity  *float64
	CastCredits int64
	CrewCredits int64
}

// Clean flattens one raw person. Absent fields stay null.
func Clean(p tmdb.Person) Record {
	rec := Record{
		PeopleID:    p.ID,
		Gender:      p.Gender,
		KnownFor:    p.KnownForDepartment,
		Popularity:  p.Popularity,
		CastCredits: int64(len(p.MovieCredits.Cast)),
		CrewCredits: int64(len(p.MovieCredits.Crew)),
	}
	if p.Name != "" {
		name := p.Name
		rec.Name = &name
	}
	if p.Birthday != nil {
		rec.Birthday = tmdb.ParseDate(*p.Birthday)
	}
	return rec
}

// CleanAll cleans every person. Duplicate ids keep the last record.
func CleanAll(raw []tmdb.Person) []Record {
	out := make([]Record, len(raw))
	for i, p := range raw {
		out[i] = Clean(p)
	}
	return entities.DedupeLast(out, func(r Record) int64 { return r.PeopleID })
}

var columns = []string{
	"people_id", "name", "birthday", "gender", "known_for", "tmdb_popularity",
	"total_number_cast_credits", "total_number_crew_credits",
}

// Batch converts records to a warehouse batch.
func Batch(records []Record) *warehouse.Batch {
	b := warehouse.NewBatch(columns...)
	for _, r := range records {
		b.Rows = append(b.Rows, []any{
			r.PeopleID, r.Name, r.Birthday, r.Gender, r.KnownFor, r.Popularity,
			r.CastCredits, r.CrewCredits,
		})
	}
	return b
}
