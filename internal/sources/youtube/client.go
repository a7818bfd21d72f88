// Package youtube fetches video statistics from the YouTube Data API.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pgEdge/pgedge-boxoffice/internal/sources"
)

// SourceName labels YouTube requests in logs and metrics.
const SourceName = "youtube"

// MaxIDsPerRequest is the largest id list videos.list accepts.
const MaxIDsPerRequest = 50

// Statistics are reported as decimal strings; absent counters are hidden
// by the uploader.
type Statistics struct {
	ViewCount     *string `json:"viewCount"`
	LikeCount     *string `json:"likeCount"`
	FavoriteCount *string `json:"favoriteCount"`
	CommentCount  *string `json:"commentCount"`
}

// Video is one videos.list item.
type Video struct {
	ID         string     `json:"id"`
	Statistics Statistics `json:"statistics"`
}

type listResponse struct {
	Items []Video `json:"items"`
}

// Client calls videos.list.
type Client struct {
	apiKey  string
	baseURL string
	req     *sources.Requester
}

// New creates a YouTube client.
func New(apiKey, baseURL string, opts ...sources.RequesterOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("youtube api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("youtube base url required")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		req:     sources.NewRequester(SourceName, opts...),
	}, nil
}

// Statistics fetches statistics for up to MaxIDsPerRequest video ids.
// Unknown or private ids are absent from the result.
func (c *Client) Statistics(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerRequest {
		return nil, fmt.Errorf("youtube accepts at most %d ids per request, got %d", MaxIDsPerRequest, len(ids))
	}

	params := url.Values{}
	params.Set("part", "statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", c.apiKey)

	var resp listResponse
	if err := c.req.GetJSON(ctx, c.baseURL+"/videos?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}
	return resp.Items, nil
}
