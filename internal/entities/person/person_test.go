package person

import (
	"context"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities/entitytest"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
)

func TestClean(t *testing.T) {
	p := tmdb.Person{
		ID:                 42,
		Name:               "Zendaya",
		Birthday:           entitytest.Ptr("1996-09-01"),
		Gender:             entitytest.Ptr(int64(1)),
		KnownForDepartment: entitytest.Ptr("Acting"),
		Popularity:         entitytest.Ptr(81.5),
		MovieCredits: tmdb.MovieCredits{
			Cast: []tmdb.CreditRef{{ID: 1}, {ID: 2}, {ID: 3}},
			Crew: []tmdb.CreditRef{{ID: 4}},
		},
	}

	rec := Clean(p)
	if rec.PeopleID != 42 || rec.Name == nil || *rec.Name != "Zendaya" {
		t.Errorf("Unexpected identity %+v", rec)
	}
	if rec.Birthday == nil || rec.Birthday.Format(tmdb.DateLayout) != "1996-09-01" {
		t.Errorf("Expected birthday 1996-09-01, got %v", rec.Birthday)
	}
	if rec.CastCredits != 3 || rec.CrewCredits != 1 {
		t.Errorf("Expected 3 cast and 1 crew credits, got %d and %d", rec.CastCredits, rec.CrewCredits)
	}
	if rec.KnownFor == nil || *rec.KnownFor != "Acting" {
		t.Errorf("Expected known_for Acting, got %v", rec.KnownFor)
	}
}

func TestCleanMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		birthday *string
	}{
		{"absent birthday", nil},
		{"empty birthday", entitytest.Ptr("")},
		{"malformed birthday", entitytest.Ptr("sometime")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Clean(tmdb.Person{ID: 7, Birthday: tt.birthday})
			if rec.Birthday != nil {
				t.Errorf("Expected null birthday, got %v", rec.Birthday)
			}
			if rec.Name != nil || rec.Gender != nil || rec.Popularity != nil || rec.KnownFor != nil {
				t.Errorf("Expected absent fields to stay null, got %+v", rec)
			}
			if rec.CastCredits != 0 || rec.CrewCredits != 0 {
				t.Errorf("Expected zero credits, got %d and %d", rec.CastCredits, rec.CrewCredits)
			}
		})
	}
}

func TestCleanAllDedupes(t *testing.T) {
	records := CleanAll([]tmdb.Person{
		{ID: 1, Name: "Old"},
		{ID: 2, Name: "Other"},
		{ID: 1, Name: "New"},
	})
	if len(records) != 2 {
		t.Fatalf("Expected 2 people, got %d", len(records))
	}
	if *records[0].Name != "New" {
		t.Errorf("Expected the last record to win, got %s", *records[0].Name)
	}
}

func TestExtract(t *testing.T) {
	now := time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC)
	fake := &entitytest.TMDB{People: map[int64]tmdb.Person{
		1: {ID: 1, Name: "A"},
		2: {ID: 2, Name: "B"},
		3: {ID: 3, Name: "C"},
	}}
	env, store := entitytest.NewEnv(now, fake)

	raw, err := Extract(context.Background(), env, []int64{1, 2, 3, 4}, entitytest.RawBucket, now, now)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(raw) != 3 {
		t.Errorf("Expected 3 people, got %d", len(raw))
	}
	if calls := fake.Calls(); len(calls) != 4 {
		t.Errorf("Expected 4 detail calls, got %v", calls)
	}
	names, _ := store.List(context.Background(), entitytest.RawBucket, blobstore.PrefixPeople)
	if len(names) != 1 || names[0] != "raw_people_20240408_20240408.ndjson" {
		t.Errorf("Unexpected snapshots %v", names)
	}
}
