// Package vimeo fetches video statistics from the Vimeo API.
package vimeo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/ratelimit"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources"
)

// SourceName labels Vimeo requests in logs and metrics.
const SourceName = "vimeo"

// Video holds the statistics of one Vimeo video. A video the API refused
// keeps only its key.
type Video struct {
	Key      string  `json:"key"`
	Plays    *int64  `json:"plays"`
	Likes    *int64  `json:"likes"`
	Comments *int64  `json:"comments"`
	Error    *string `json:"error,omitempty"`
}

type videoResponse struct {
	Stats struct {
		Plays *int64 `json:"plays"`
	} `json:"stats"`
	Metadata struct {
		Connections struct {
			Likes struct {
				Total *int64 `json:"total"`
			} `json:"likes"`
			Comments struct {
				Total *int64 `json:"total"`
			} `json:"comments"`
		} `json:"connections"`
	} `json:"metadata"`
}

// Client calls the single video endpoint.
type Client struct {
	baseURL string
	req     *sources.Requester
}

// New creates a Vimeo client authenticating with an access token.
func New(token, baseURL string, opts ...sources.RequesterOption) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("vimeo token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("vimeo base url required")
	}
	opts = append([]sources.RequesterOption{
		sources.WithHeader("Authorization", "bearer "+token),
		sources.WithHeader("Accept", "application/vnd.vimeo.*+json;version=3.4"),
	}, opts...)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		req:     sources.NewRequester(SourceName, opts...),
	}, nil
}

// Video fetches statistics for key. A non-success response that is not
// worth retrying yields a key-only record instead of an error.
func (c *Client) Video(ctx context.Context, key string) (Video, error) {
	u := c.baseURL + "/videos/" + url.PathEscape(key) + "?fields=stats,metadata"

	var resp videoResponse
	err := c.req.GetJSON(ctx, u, &resp)
	var se *sources.StatusError
	if errors.As(err, &se) && !errors.Is(err, ratelimit.ErrRetriesExhausted) {
		logging.Debug().Str("key", key).Int("status", se.StatusCode).Msg("Vimeo video unavailable")
		msg := se.Error()
		return Video{Key: key, Error: &msg}, nil
	}
	if err != nil {
		return Video{}, fmt.Errorf("vimeo video %s: %w", key, err)
	}

	return Video{
		Key:      key,
		Plays:    resp.Stats.Plays,
		Likes:    resp.Metadata.Connections.Likes.Total,
		Comments: resp.Metadata.Connections.Comments.Total,
	}, nil
}
