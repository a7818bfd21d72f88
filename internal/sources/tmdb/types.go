package tmdb

import "time"

// DateLayout is the TMDB calendar date format.
const DateLayout = "2006-01-02"

// Movie is the movie details payload with credits, keywords, release
// dates and videos appended. Optional upstream fields are pointers.
type Movie struct {
	ID                  int64          `json:"id"`
	Adult               bool           `json:"adult"`
	Budget              *int64         `json:"budget"`
	Revenue             *int64         `json:"revenue"`
	IMDbID              *string        `json:"imdb_id"`
	Title               string         `json:"title"`
	OriginalTitle       string         `json:"original_title"`
	OriginalLanguage    string         `json:"original_language"`
	ReleaseDate         string         `json:"release_date"`
	Runtime             *int64         `json:"runtime"`
	Status              string         `json:"status"`
	Popularity          *float64       `json:"popularity"`
	VoteAverage         *float64       `json:"vote_average"`
	VoteCount           *int64         `json:"vote_count"`
	BelongsToCollection *CollectionRef `json:"belongs_to_collection"`
	ProductionCompanies []Company      `json:"production_companies"`
	Genres              []Genre        `json:"genres"`
	Credits             Credits        `json:"credits"`
	Keywords            Keywords       `json:"keywords"`
	ReleaseDates        ReleaseDates   `json:"release_dates"`
	Videos              Videos         `json:"videos"`
}

// CollectionRef links a movie to its collection.
type CollectionRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Company is a production company.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Credits holds cast and crew in billing order.
type Credits struct {
	Cast []CastCredit `json:"cast"`
	Crew []CrewCredit `json:"crew"`
}

// CastCredit is one cast entry.
type CastCredit struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

// CrewCredit is one crew entry.
type CrewCredit struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department,omitempty"`
}

// Keywords wraps the movie keyword list.
type Keywords struct {
	Keywords []Keyword `json:"keywords"`
}

// Keyword is a TMDB keyword.
type Keyword struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReleaseDates holds release dates per country.
type ReleaseDates struct {
	Results []CountryReleases `json:"results"`
}

// CountryReleases lists the releases of one country.
type CountryReleases struct {
	Country      string    `json:"iso_3166_1"`
	ReleaseDates []Release `json:"release_dates"`
}

// Release type codes.
const (
	ReleasePremiere        = 1
	ReleaseTheatricalLimit = 2
	ReleaseTheatrical      = 3
	ReleaseDigital         = 4
	ReleasePhysical        = 5
	ReleaseTV              = 6
)

// Release is one dated release.
type Release struct {
	Type          int    `json:"type"`
	ReleaseDate   string `json:"release_date"`
	Certification string `json:"certification,omitempty"`
}

// Videos wraps the movie video list.
type Videos struct {
	Results []Video `json:"results"`
}

// Video is a trailer or clip hosted on YouTube or Vimeo.
type Video struct {
	Key         string `json:"key"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	PublishedAt string `json:"published_at"`
}

// Person is the person details payload with movie credits appended.
type Person struct {
	ID                 int64        `json:"id"`
	Name               string       `json:"name"`
	Birthday           *string      `json:"birthday"`
	Gender             *int64       `json:"gender"`
	KnownForDepartment *string      `json:"known_for_department"`
	Popularity         *float64     `json:"popularity"`
	MovieCredits       MovieCredits `json:"movie_credits"`
}

// MovieCredits lists the movies a person worked on.
type MovieCredits struct {
	Cast []CreditRef `json:"cast"`
	Crew []CreditRef `json:"crew"`
}

// CreditRef is a credit of a person on one movie.
type CreditRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
	Job   string `json:"job,omitempty"`
}

// Collection is a movie collection and its parts.
type Collection struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Parts []Part `json:"parts"`
}

// Part is one title of a collection.
type Part struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	MediaType   string   `json:"media_type"`
	ReleaseDate string   `json:"release_date"`
	Popularity  *float64 `json:"popularity"`
}

// Language is a configuration language entry.
type Language struct {
	ISO6391     string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

type changesPage struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Results    []struct {
		ID    int64 `json:"id"`
		Adult *bool `json:"adult"`
	} `json:"results"`
}

type discoverPage struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Results    []struct {
		ID int64 `json:"id"`
	} `json:"results"`
}

// ParseDate parses a TMDB date; empty or malformed values yield nil.
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
