// Package tmdb is a client for the parts of the TMDB v3 API the warehouse
// extracts.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources"
)

// SourceName labels TMDB requests in logs and metrics.
const SourceName = "tmdb"

// MaxChangesSpan is the widest range the changes endpoints accept.
const MaxChangesSpan = 14 * 24 * time.Hour

// maxDiscoverPages is the deepest page TMDB serves for discover queries.
const maxDiscoverPages = 500

// MovieAppend is appended to every movie details request.
const MovieAppend = "credits,keywords,release_dates,videos"

// Client provides access to the TMDB API.
type Client struct {
	baseURL  string
	language string
	req      *sources.Requester
}

// New creates a TMDB client authenticating with a v4 read token.
func New(token, baseURL, language string, opts ...sources.RequesterOption) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("tmdb token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}

	opts = append([]sources.RequesterOption{
		sources.WithHeader("Authorization", "Bearer "+token),
		sources.WithHeader("Accept", "application/json"),
	}, opts...)

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.TrimSpace(language),
		req:      sources.NewRequester(SourceName, opts...),
	}, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if c.language != "" && params.Get("language") == "" {
		params.Set("language", c.language)
	}
	return c.baseURL + path + "?" + params.Encode()
}

// MovieDetails fetches one movie with credits, keywords, release dates
// and videos appended.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*Movie, error) {
	var m Movie
	u := c.endpoint("/movie/"+strconv.FormatInt(id, 10), url.Values{"append_to_response": {MovieAppend}})
	if err := c.req.GetJSON(ctx, u, &m); err != nil {
		return nil, fmt.Errorf("movie %d: %w", id, err)
	}
	return &m, nil
}

// PersonDetails fetches one person with movie credits appended.
func (c *Client) PersonDetails(ctx context.Context, id int64) (*Person, error) {
	var p Person
	u := c.endpoint("/person/"+strconv.FormatInt(id, 10), url.Values{"append_to_response": {"movie_credits"}})
	if err := c.req.GetJSON(ctx, u, &p); err != nil {
		return nil, fmt.Errorf("person %d: %w", id, err)
	}
	return &p, nil
}

// Collection fetches one collection with its parts.
func (c *Client) Collection(ctx context.Context, id int64) (*Collection, error) {
	var col Collection
	if err := c.req.GetJSON(ctx, c.endpoint("/collection/"+strconv.FormatInt(id, 10), nil), &col); err != nil {
		return nil, fmt.Errorf("collection %d: %w", id, err)
	}
	return &col, nil
}

// Languages fetches the configuration language list.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var langs []Language
	if err := c.req.GetJSON(ctx, c.baseURL+"/configuration/languages", &langs); err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	return langs, nil
}

// MovieChanges returns the ids of movies changed in [start, end].
func (c *Client) MovieChanges(ctx context.Context, start, end time.Time) ([]int64, error) {
	return c.changes(ctx, "/movie/changes", start, end)
}

// PersonChanges returns the ids of people changed in [start, end].
func (c *Client) PersonChanges(ctx context.Context, start, end time.Time) ([]int64, error) {
	return c.changes(ctx, "/person/changes", start, end)
}

// changes walks every page of a changes endpoint, splitting the range
// into spans the API accepts.
func (c *Client) changes(ctx context.Context, path string, start, end time.Time) ([]int64, error) {
	seen := make(map[int64]struct{})
	for spanStart := start; spanStart.Before(end) || spanStart.Equal(end); {
		spanEnd := spanStart.Add(MaxChangesSpan - 24*time.Hour)
		if spanEnd.After(end) {
			spanEnd = end
		}

		for page, total := 1, 1; page <= total; page++ {
			var p changesPage
			u := c.endpoint(path, url.Values{
				"start_date": {spanStart.Format(DateLayout)},
				"end_date":   {spanEnd.Format(DateLayout)},
				"page":       {strconv.Itoa(page)},
			})
			if err := c.req.GetJSON(ctx, u, &p); err != nil {
				return nil, fmt.Errorf("%s page %d: %w", path, page, err)
			}
			total = p.TotalPages
			for _, r := range p.Results {
				seen[r.ID] = struct{}{}
			}
		}
		spanStart = spanEnd.Add(24 * time.Hour)
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	logging.Debug().
		Str("endpoint", path).
		Str("start", start.Format(DateLayout)).
		Str("end", end.Format(DateLayout)).
		Int("ids", len(ids)).
		Msg("Fetched changes")
	return ids, nil
}

// DiscoverMovieIDs returns the ids of movies with a primary release in
// year, walking up to the deepest page TMDB serves.
func (c *Client) DiscoverMovieIDs(ctx context.Context, year int) ([]int64, error) {
	var ids []int64
	for page, total := 1, 1; page <= total && page <= maxDiscoverPages; page++ {
		var p discoverPage
		u := c.endpoint("/discover/movie", url.Values{
			"primary_release_year": {strconv.Itoa(year)},
			"include_adult":        {"false"},
			"sort_by":              {"popularity.desc"},
			"page":                 {strconv.Itoa(page)},
		})
		if err := c.req.GetJSON(ctx, u, &p); err != nil {
			return nil, fmt.Errorf("discover %d page %d: %w", year, page, err)
		}
		total = p.TotalPages
		for _, r := range p.Results {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
