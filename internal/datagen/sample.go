package datagen

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities/movie"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities/performance"
	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/match"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/boxoffice"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/vimeo"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/youtube"
)

// SampleConfig sizes a synthetic corpus.
type SampleConfig struct {
	// Movies is the number of raw movie records.
	Movies int

	// FromYear and ToYear bound release years.
	FromYear int
	ToYear   int

	// BoxOfficeFromYear is the first charted year.
	BoxOfficeFromYear int

	// Seed makes the corpus reproducible; zero picks a random seed.
	Seed uint64

	Now time.Time
}

// DefaultSampleConfig returns a small corpus covering recent years.
func DefaultSampleConfig(now time.Time) SampleConfig {
	return SampleConfig{
		Movies:            200,
		FromYear:          now.Year() - 3,
		ToYear:            now.Year(),
		BoxOfficeFromYear: now.Year() - 2,
		Now:               now,
	}
}

// Validate checks the configuration.
func (c SampleConfig) Validate() error {
	if c.Movies <= 0 {
		return fmt.Errorf("movies must be positive")
	}
	if c.FromYear > c.ToYear {
		return fmt.Errorf("from year %d is after to year %d", c.FromYear, c.ToYear)
	}
	if c.BoxOfficeFromYear < match.FirstTrackedYear {
		return fmt.Errorf("box office year must be %d or later", match.FirstTrackedYear)
	}
	return nil
}

// Corpus is a consistent set of raw records: every credited person, every
// referenced collection and every video key has its own record, and the
// charts list theatrical movies under their titles.
type Corpus struct {
	Movies      []tmdb.Movie
	People      []tmdb.Person
	Collections map[string]tmdb.Collection
	YouTube     []youtube.Video
	Vimeo       []vimeo.Video
	Charts      []boxoffice.Chart
	Languages   []tmdb.Language

	cfg SampleConfig
}

// Summary describes a written corpus.
type Summary struct {
	Objects int
	Bytes   int64
	Records map[string]int
}

var (
	languages = []tmdb.Language{
		{ISO6391: "en", EnglishName: "English"},
		{ISO6391: "fr", EnglishName: "French"},
		{ISO6391: "es", EnglishName: "Spanish"},
		{ISO6391: "ja", EnglishName: "Japanese"},
		{ISO6391: "ko", EnglishName: "Korean"},
	}
	languageWeights = []int{70, 8, 8, 7, 7}

	genres = []tmdb.Genre{
		{ID: 28, Name: "Action"}, {ID: 12, Name: "Adventure"}, {ID: 16, Name: "Animation"},
		{ID: 35, Name: "Comedy"}, {ID: 18, Name: "Drama"}, {ID: 27, Name: "Horror"},
		{ID: 878, Name: "Science Fiction"}, {ID: 53, Name: "Thriller"},
	}

	departments = []string{"Acting", "Directing", "Production", "Writing"}
)

// NewCorpus generates a corpus for cfg.
func NewCorpus(cfg SampleConfig) *Corpus {
	f := NewFaker()
	if cfg.Seed != 0 {
		f = NewFakerWithSeed(cfg.Seed)
	}

	c := &Corpus{
		Collections: make(map[string]tmdb.Collection),
		Languages:   languages,
		cfg:         cfg,
	}

	people := make([]tmdb.Person, cfg.Movies*3)
	for i := range people {
		people[i] = c.person(f, int64(1000+i))
	}

	from := time.Date(cfg.FromYear, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(cfg.ToYear, 12, 31, 0, 0, 0, 0, time.UTC)
	if to.After(cfg.Now) {
		to = cfg.Now
	}

	var collectionID int64 = 500
	for i := range cfg.Movies {
		m := c.movie(f, int64(10000+i), f.DateRange(from, to), people)
		if f.Chance(0.2) {
			m.BelongsToCollection = &tmdb.CollectionRef{ID: collectionID}
			c.addCollection(f, collectionID, m)
			collectionID++
		}
		c.Movies = append(c.Movies, m)
	}
	c.People = people
	c.Charts = c.charts(f)
	return c
}

func (c *Corpus) person(f *Faker, id int64) tmdb.Person {
	p := tmdb.Person{
		ID:                 id,
		Name:               f.Name(),
		Gender:             ptr(int64(f.Int(0, 3))),
		KnownForDepartment: ptr(ChooseWeighted(f, departments, []int{70, 10, 10, 10})),
		Popularity:         ptr(f.Float64(0.5, 80)),
	}
	if f.Chance(0.8) {
		born := f.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC))
		p.Birthday = ptr(born.Format(tmdb.DateLayout))
	}
	return p
}

func (c *Corpus) movie(f *Faker, id int64, released time.Time, people []tmdb.Person) tmdb.Movie {
	title := f.Title()
	m := tmdb.Movie{
		ID:               id,
		Title:            title,
		OriginalTitle:    title,
		OriginalLanguage: ChooseWeighted(f, languages, languageWeights).ISO6391,
		ReleaseDate:      released.Format(tmdb.DateLayout),
		Runtime:          ptr(f.Int64(80, 180)),
		Status:           "Released",
		Budget:           ptr(f.Int64(1, 200) * 1_000_000),
		Popularity:       ptr(f.Float64(1, 300)),
		VoteAverage:      ptr(f.Float64(3, 9)),
		VoteCount:        ptr(f.Int64(0, 20000)),
	}

	switch {
	case f.Chance(0.1):
		m.Revenue = nil
	case f.Chance(0.1):
		m.Revenue = ptr(int64(0))
	default:
		m.Revenue = ptr(f.Int64(1, 900) * 1_000_000)
	}

	releaseType := tmdb.ReleaseTheatrical
	if f.Chance(0.15) {
		releaseType = tmdb.ReleaseDigital
	}
	m.ReleaseDates = tmdb.ReleaseDates{Results: []tmdb.CountryReleases{{
		Country:      "US",
		ReleaseDates: []tmdb.Release{{Type: releaseType, ReleaseDate: m.ReleaseDate + "T00:00:00.000Z"}},
	}}}

	for range f.Int(1, 3) {
		m.Genres = append(m.Genres, Choose(f, genres))
	}
	for range f.Int(1, 3) {
		m.ProductionCompanies = append(m.ProductionCompanies, tmdb.Company{ID: f.Int64(1, 9999), Name: f.Company()})
	}
	if f.Chance(0.2) {
		m.Keywords.Keywords = append(m.Keywords.Keywords, tmdb.Keyword{ID: 818, Name: "based on novel or book"})
	}
	m.Keywords.Keywords = append(m.Keywords.Keywords, tmdb.Keyword{ID: f.Int64(1000, 9999), Name: f.Word()})

	for order := range f.Int(0, 5) {
		p := &people[f.Int(0, len(people)-1)]
		m.Credits.Cast = append(m.Credits.Cast, tmdb.CastCredit{ID: p.ID, Name: p.Name, Order: order})
		p.MovieCredits.Cast = append(p.MovieCredits.Cast, tmdb.CreditRef{ID: id, Title: title})
	}
	for _, job := range []string{"Director", "Producer"} {
		if f.Chance(0.1) {
			continue
		}
		p := &people[f.Int(0, len(people)-1)]
		m.Credits.Crew = append(m.Credits.Crew, tmdb.CrewCredit{ID: p.ID, Name: p.Name, Job: job})
		p.MovieCredits.Crew = append(p.MovieCredits.Crew, tmdb.CreditRef{ID: id, Title: title, Job: job})
	}

	for range f.Int(0, 3) {
		c.addVideo(f, &m, released)
	}
	return m
}

func (c *Corpus) addVideo(f *Faker, m *tmdb.Movie, released time.Time) {
	published := released.AddDate(0, 0, -f.Int(1, 120)).Format(time.RFC3339)
	v := tmdb.Video{
		Key:         f.VideoKey(),
		Type:        ChooseWeighted(f, []string{"Trailer", "Teaser", "Clip"}, []int{60, 25, 15}),
		PublishedAt: published,
	}
	if f.Chance(0.85) {
		v.Site = "YouTube"
		stats := youtube.Statistics{
			ViewCount:     ptr(strconv.FormatInt(f.Int64(1000, 50_000_000), 10)),
			FavoriteCount: ptr("0"),
			CommentCount:  ptr(strconv.FormatInt(f.Int64(0, 40_000), 10)),
		}
		if f.Chance(0.9) {
			stats.LikeCount = ptr(strconv.FormatInt(f.Int64(0, 900_000), 10))
		}
		c.YouTube = append(c.YouTube, youtube.Video{ID: v.Key, Statistics: stats})
	} else {
		v.Site = "Vimeo"
		v.Key = strconv.FormatInt(f.Int64(10_000_000, 999_999_999), 10)
		rec := vimeo.Video{Key: v.Key}
		if f.Chance(0.9) {
			rec.Plays = ptr(f.Int64(100, 2_000_000))
			rec.Likes = ptr(f.Int64(0, 20_000))
			rec.Comments = ptr(f.Int64(0, 2_000))
		} else {
			rec.Error = ptr("The requested video couldn't be found.")
		}
		c.Vimeo = append(c.Vimeo, rec)
	}
	m.Videos.Results = append(m.Videos.Results, v)
}

func (c *Corpus) addCollection(f *Faker, id int64, m tmdb.Movie) {
	col := tmdb.Collection{ID: id, Name: " " + m.Title + " Collection "}
	first := f.DateRange(time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC))
	for i := range f.Int(0, 3) {
		col.Parts = append(col.Parts, tmdb.Part{
			ID:          id*100 + int64(i),
			Title:       m.Title + " " + strconv.Itoa(i+1),
			MediaType:   "movie",
			ReleaseDate: first.AddDate(i*3, 0, 0).Format(tmdb.DateLayout),
			Popularity:  ptr(f.Float64(1, 60)),
		})
	}
	col.Parts = append(col.Parts, tmdb.Part{
		ID:          m.ID,
		Title:       m.Title,
		MediaType:   "movie",
		ReleaseDate: m.ReleaseDate,
		Popularity:  m.Popularity,
	})
	c.Collections[strconv.FormatInt(id, 10)] = col
}

type period struct {
	year int
	week int
}

func (p period) next() period {
	if p.week == match.WeeksPerYear {
		return period{p.year + 1, 1}
	}
	return period{p.year, p.week + 1}
}

type chartEntry struct {
	title    string
	gross    int64
	theaters string
	weeks    int
}

// charts lays out the run of every charted movie. A run opens the first
// week ending at least seven days after release, so the estimated release
// of each row lies within a week of the catalogued date.
func (c *Corpus) charts(f *Faker) []boxoffice.Chart {
	byPeriod := make(map[period][]chartEntry)
	for _, m := range c.Movies {
		if m.Revenue == nil || *m.Revenue <= 0 || !movie.IsTheatrical(m) {
			continue
		}
		released := tmdb.ParseDate(m.ReleaseDate)
		if released == nil || released.Year() < c.cfg.BoxOfficeFromYear {
			continue
		}

		p := period{released.Year(), 1}
		for {
			end, _ := match.WeekEndDate(p.year, p.week)
			if !end.Before(released.AddDate(0, 0, 7)) {
				break
			}
			p = p.next()
		}

		gross := *m.Revenue / 4
		theaters := f.Int64(500, 4500)
		run := f.Int(1, 10)
		for week := 1; week <= run; week++ {
			if match.ValidatePeriod(p.year, p.week, c.cfg.Now) != nil {
				break
			}
			entry := chartEntry{title: m.Title, gross: gross, theaters: Thousands(theaters), weeks: week}
			if f.Chance(0.05) {
				entry.theaters = "-"
			}
			byPeriod[p] = append(byPeriod[p], entry)
			gross = gross * int64(f.Int(40, 70)) / 100
			theaters = theaters * int64(f.Int(70, 95)) / 100
			p = p.next()
		}
	}

	periods := make([]period, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].year != periods[j].year {
			return periods[i].year < periods[j].year
		}
		return periods[i].week < periods[j].week
	})

	headers := []string{
		performance.ColumnRank, performance.ColumnRelease, performance.ColumnGross,
		performance.ColumnTheaters, performance.ColumnWeeks,
	}
	charts := make([]boxoffice.Chart, 0, len(periods))
	for _, p := range periods {
		entries := byPeriod[p]
		if f.Chance(0.3) {
			entries = append(entries, chartEntry{
				title:    f.Title() + " " + strconv.Itoa(f.Int(1975, 2000)) + " Re-release",
				gross:    f.Int64(10_000, 500_000),
				theaters: Thousands(f.Int64(50, 400)),
				weeks:    1,
			})
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].gross > entries[j].gross })

		chart := boxoffice.Chart{Year: p.year, Week: p.week, Headers: headers}
		for rank, e := range entries {
			chart.Rows = append(chart.Rows, map[string]string{
				boxoffice.ColumnYear:       strconv.Itoa(p.year),
				boxoffice.ColumnWeek:       strconv.Itoa(p.week),
				performance.ColumnRank:     strconv.Itoa(rank + 1),
				performance.ColumnRelease:  e.title,
				performance.ColumnGross:    Dollars(e.gross),
				performance.ColumnTheaters: e.theaters,
				performance.ColumnWeeks:    strconv.Itoa(e.weeks),
			})
		}
		charts = append(charts, chart)
	}
	return charts
}

// countingStore tallies what is written through it.
type countingStore struct {
	blobstore.Store
	objects int
	bytes   int64
}

func (s *countingStore) Write(ctx context.Context, bucket, name string, data []byte) error {
	if err := s.Store.Write(ctx, bucket, name, data); err != nil {
		return err
	}
	s.objects++
	s.bytes += int64(len(data))
	return nil
}

// Write stores the corpus in bucket as initial snapshots tagged
// [start, end], the way an init extraction lays them out.
func (c *Corpus) Write(ctx context.Context, store blobstore.Store, bucket string, start, end time.Time) (Summary, error) {
	cs := &countingStore{Store: store}
	snapshot := func(prefix, ext string) string {
		return blobstore.SnapshotName(prefix, start, end, ext)
	}

	if err := blobstore.WriteNDJSON(ctx, cs, bucket, snapshot(blobstore.PrefixMovies, "ndjson"), c.Movies); err != nil {
		return Summary{}, fmt.Errorf("failed to write movies: %w", err)
	}
	if err := blobstore.WriteNDJSON(ctx, cs, bucket, snapshot(blobstore.PrefixPeople, "ndjson"), c.People); err != nil {
		return Summary{}, fmt.Errorf("failed to write people: %w", err)
	}
	if err := blobstore.WriteJSON(ctx, cs, bucket, snapshot(blobstore.PrefixCollections, "json"), c.Collections); err != nil {
		return Summary{}, fmt.Errorf("failed to write collections: %w", err)
	}
	if err := blobstore.WriteNDJSON(ctx, cs, bucket, snapshot(blobstore.PrefixYouTube, "ndjson"), c.YouTube); err != nil {
		return Summary{}, fmt.Errorf("failed to write youtube statistics: %w", err)
	}
	if err := blobstore.WriteNDJSON(ctx, cs, bucket, snapshot(blobstore.PrefixVimeo, "ndjson"), c.Vimeo); err != nil {
		return Summary{}, fmt.Errorf("failed to write vimeo statistics: %w", err)
	}
	if err := blobstore.WriteJSON(ctx, cs, bucket, movie.LanguagesObject, c.Languages); err != nil {
		return Summary{}, fmt.Errorf("failed to write languages: %w", err)
	}

	header, rows := performance.ChartRecords(c.Charts)
	data, err := blobstore.EncodeCSV(header, rows)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to encode charts: %w", err)
	}
	name := blobstore.BoxOfficeName(c.cfg.BoxOfficeFromYear, c.cfg.Now.Year())
	if err := cs.Write(ctx, bucket, name, data); err != nil {
		return Summary{}, fmt.Errorf("failed to write charts: %w", err)
	}

	summary := Summary{
		Objects: cs.objects,
		Bytes:   cs.bytes,
		Records: map[string]int{
			"movies":      len(c.Movies),
			"people":      len(c.People),
			"collections": len(c.Collections),
			"youtube":     len(c.YouTube),
			"vimeo":       len(c.Vimeo),
			"chart_rows":  len(rows),
		},
	}
	logging.Info().
		Str("bucket", bucket).
		Int("objects", summary.Objects).
		Str("size", FormatSize(summary.Bytes)).
		Msg("Wrote sample corpus")
	return summary, nil
}

func ptr[T any](v T) *T {
	return &v
}
