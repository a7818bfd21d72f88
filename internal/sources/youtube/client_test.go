package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/videos" || q.Get("part") != "statistics" || q.Get("key") != "k" {
			t.Errorf("Unexpected request %s", r.URL.String())
		}
		if q.Get("id") != "a,b" {
			t.Errorf("Expected joined ids, got %s", q.Get("id"))
		}
		_, _ = w.Write([]byte(`{"items": [
			{"id": "a", "statistics": {"viewCount": "100", "likeCount": "7", "favoriteCount": "0", "commentCount": "3"}},
			{"id": "b", "statistics": {"viewCount": "5"}}
		]}`))
	}))
	defer server.Close()

	c, err := New("k", server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	videos, err := c.Statistics(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(videos))
	}
	if *videos[0].Statistics.ViewCount != "100" {
		t.Errorf("Expected 100 views, got %s", *videos[0].Statistics.ViewCount)
	}
	if videos[1].Statistics.LikeCount != nil {
		t.Errorf("Expected hidden likes to stay nil")
	}
}

func TestStatisticsRejectsOversizedChunk(t *testing.T) {
	c, _ := New("k", "http://unused")
	ids := strings.Split(strings.Repeat("x,", MaxIDsPerRequest)+"x", ",")
	if _, err := c.Statistics(context.Background(), ids); err == nil {
		t.Error("Expected error for more than 50 ids")
	}
}
