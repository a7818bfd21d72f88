package vimeo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/videos/123":
			if r.URL.Query().Get("fields") != "stats,metadata" {
				t.Errorf("Expected fields filter, got %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"stats": {"plays": 900},
				"metadata": {"connections": {"likes": {"total": 12}, "comments": {"total": 4}}}}`))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	c, err := New("tok", server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	v, err := c.Video(context.Background(), "123")
	if err != nil {
		t.Fatalf("Video failed: %v", err)
	}
	if v.Plays == nil || *v.Plays != 900 || *v.Likes != 12 || *v.Comments != 4 {
		t.Errorf("Unexpected video %+v", v)
	}

	private, err := c.Video(context.Background(), "private")
	if err != nil {
		t.Fatalf("Expected a key-only record, got error %v", err)
	}
	if private.Key != "private" || private.Plays != nil || private.Error == nil {
		t.Errorf("Expected key-only record, got %+v", private)
	}
}
