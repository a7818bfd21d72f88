// Package entitytest provides in-memory collaborators for entity tests.
package entitytest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/boxoffice"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/vimeo"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/youtube"
)

// Buckets used by NewEnv.
const (
	RawBucket    = "raw"
	UpdateBucket = "update"
)

// NewEnv returns an Env over a memory store and the given fakes, with a
// fixed clock. The warehouse is left nil.
func NewEnv(now time.Time, t *TMDB) (*entities.Env, *blobstore.Memory) {
	store := blobstore.NewMemory()
	settings := entities.DefaultSettings()
	settings.Workers = 2
	settings.MovieChunkSize = 2
	settings.PeopleChunkSize = 2
	settings.CollectionChunkSize = 2
	settings.VideoChunkSize = 2

	env := &entities.Env{
		Store:        store,
		RawBucket:    RawBucket,
		UpdateBucket: UpdateBucket,
		Settings:     settings,
		Now:          func() time.Time { return now },
	}
	if t != nil {
		env.TMDB = t
	}
	return env, store
}

func notFound(path string) error {
	return &sources.StatusError{Source: tmdb.SourceName, URL: path, StatusCode: http.StatusNotFound}
}

// TMDB serves canned TMDB records. Unknown ids answer 404.
type TMDB struct {
	mu sync.Mutex

	Movies       map[int64]tmdb.Movie
	People       map[int64]tmdb.Person
	Collections  map[int64]tmdb.Collection
	LanguageList []tmdb.Language

	// ChangedMovies and ChangedPeople answer the changes endpoints.
	ChangedMovies []int64
	ChangedPeople []int64

	// Discover answers discover by release year.
	Discover map[int][]int64

	// Fail makes every details call for the id fail.
	Fail map[int64]error

	calls []int64
}

var _ entities.TMDB = (*TMDB)(nil)

// Calls returns the ids requested through a details endpoint, sorted.
func (f *TMDB) Calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]int64(nil), f.calls...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (f *TMDB) record(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.Fail[id]
}

// MovieDetails implements entities.TMDB.
func (f *TMDB) MovieDetails(ctx context.Context, id int64) (*tmdb.Movie, error) {
	if err := f.record(id); err != nil {
		return nil, err
	}
	m, ok := f.Movies[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("/movie/%d", id))
	}
	return &m, nil
}

// PersonDetails implements entities.TMDB.
func (f *TMDB) PersonDetails(ctx context.Context, id int64) (*tmdb.Person, error) {
	if err := f.record(id); err != nil {
		return nil, err
	}
	p, ok := f.People[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("/person/%d", id))
	}
	return &p, nil
}

// Collection implements entities.TMDB.
func (f *TMDB) Collection(ctx context.Context, id int64) (*tmdb.Collection, error) {
	if err := f.record(id); err != nil {
		return nil, err
	}
	c, ok := f.Collections[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("/collection/%d", id))
	}
	return &c, nil
}

// Languages implements entities.TMDB.
func (f *TMDB) Languages(ctx context.Context) ([]tmdb.Language, error) {
	return f.LanguageList, nil
}

// MovieChanges implements entities.TMDB.
func (f *TMDB) MovieChanges(ctx context.Context, start, end time.Time) ([]int64, error) {
	return f.ChangedMovies, nil
}

// PersonChanges implements entities.TMDB.
func (f *TMDB) PersonChanges(ctx context.Context, start, end time.Time) ([]int64, error) {
	return f.ChangedPeople, nil
}

// DiscoverMovieIDs implements entities.TMDB.
func (f *TMDB) DiscoverMovieIDs(ctx context.Context, year int) ([]int64, error) {
	return f.Discover[year], nil
}

// BoxOffice serves canned weekly charts keyed by "year/week".
type BoxOffice struct {
	mu     sync.Mutex
	Charts map[string]*boxoffice.Chart
	calls  int
}

var _ entities.BoxOffice = (*BoxOffice)(nil)

// ChartKey returns the Charts key of a period.
func ChartKey(year, week int) string {
	return fmt.Sprintf("%d/%d", year, week)
}

// Calls returns the number of charts requested.
func (f *BoxOffice) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Weekly implements entities.BoxOffice. Unknown periods yield empty charts.
func (f *BoxOffice) Weekly(ctx context.Context, year, week int) (*boxoffice.Chart, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if c, ok := f.Charts[ChartKey(year, week)]; ok {
		return c, nil
	}
	return &boxoffice.Chart{Year: year, Week: week}, nil
}

// YouTube serves canned statistics by video id.
type YouTube struct {
	Stats map[string]youtube.Statistics
}

var _ entities.YouTube = (*YouTube)(nil)

// Statistics implements entities.YouTube. Unknown ids are omitted.
func (f *YouTube) Statistics(ctx context.Context, ids []string) ([]youtube.Video, error) {
	var out []youtube.Video
	for _, id := range ids {
		if s, ok := f.Stats[id]; ok {
			out = append(out, youtube.Video{ID: id, Statistics: s})
		}
	}
	return out, nil
}

// Vimeo serves canned statistics by key. Unknown keys keep only the key.
type Vimeo struct {
	Videos map[string]vimeo.Video
}

var _ entities.Vimeo = (*Vimeo)(nil)

// Video implements entities.Vimeo.
func (f *Vimeo) Video(ctx context.Context, key string) (vimeo.Video, error) {
	if v, ok := f.Videos[key]; ok {
		v.Key = key
		return v, nil
	}
	msg := "not found"
	return vimeo.Video{Key: key, Error: &msg}, nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Theatrical returns release dates holding one theatrical release.
func Theatrical(date string) tmdb.ReleaseDates {
	return tmdb.ReleaseDates{Results: []tmdb.CountryReleases{{
		Country:      "US",
		ReleaseDates: []tmdb.Release{{Type: tmdb.ReleaseTheatrical, ReleaseDate: date}},
	}}}
}
