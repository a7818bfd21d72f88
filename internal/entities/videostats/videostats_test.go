package videostats

import (
	"context"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities/entitytest"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/vimeo"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/youtube"
)

func movieWithVideos(id int64, videos ...tmdb.Video) tmdb.Movie {
	return tmdb.Movie{ID: id, Videos: tmdb.Videos{Results: videos}}
}

func TestKeysDedupesPerMovie(t *testing.T) {
	raw := []tmdb.Movie{
		movieWithVideos(1,
			tmdb.Video{Key: "a", Site: SiteYouTube, Type: "Trailer"},
			tmdb.Video{Key: "a", Site: SiteYouTube, Type: "Teaser"},
			tmdb.Video{Key: "", Site: SiteYouTube},
		),
		movieWithVideos(2, tmdb.Video{Key: "a", Site: SiteYouTube, Type: "Trailer"}),
	}

	keys := Keys(raw)
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(keys))
	}
	if keys[0].MovieID != 1 || keys[0].Type != "Teaser" {
		t.Errorf("Expected the last duplicate of movie 1 to win, got %+v", keys[0])
	}
	if ids := BySite(keys, SiteYouTube); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("Expected one distinct YouTube id, got %v", ids)
	}
}

func TestYouTubeCountsParsesStrings(t *testing.T) {
	counts := YouTubeCounts([]youtube.Video{{
		ID: "a",
		Statistics: youtube.Statistics{
			ViewCount:    entitytest.Ptr("1200"),
			LikeCount:    entitytest.Ptr("oops"),
			CommentCount: entitytest.Ptr("7"),
		},
	}})

	c := counts["a"]
	if c.Views == nil || *c.Views != 1200 {
		t.Errorf("Expected 1200 views, got %v", c.Views)
	}
	if c.Likes != nil {
		t.Errorf("Expected malformed likes to be null, got %v", *c.Likes)
	}
	if c.Favorites != nil {
		t.Errorf("Expected hidden favourites to be null, got %v", *c.Favorites)
	}
	if c.Comments == nil || *c.Comments != 7 {
		t.Errorf("Expected 7 comments, got %v", c.Comments)
	}
}

func TestJoinDropsKeysWithoutStats(t *testing.T) {
	keys := []Key{
		{MovieID: 1, Key: "a", Site: SiteYouTube, PublishedAt: "2024-03-01T10:00:00.000Z"},
		{MovieID: 1, Key: "b", Site: SiteYouTube},
		{MovieID: 2, Key: "c", Site: SiteVimeo, PublishedAt: "not a date"},
	}
	stats := Stats{
		SiteYouTube: {"a": {Views: entitytest.Ptr(int64(10))}},
		SiteVimeo:   {"c": {}},
	}

	records := Join(keys, stats)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].PublishedAt == nil || records[0].PublishedAt.Year() != 2024 {
		t.Errorf("Expected publication time parsed, got %v", records[0].PublishedAt)
	}
	if records[1].VideoKeyID != "c" || records[1].PublishedAt != nil {
		t.Errorf("Expected Vimeo record with null publication time, got %+v", records[1])
	}
}

func TestBatchColumnsMatchSchema(t *testing.T) {
	b := Batch([]Record{{MovieID: 1, VideoKeyID: "a"}})
	for _, c := range b.Columns {
		if !Schema.Has(c) {
			t.Errorf("Expected column %s in schema", c)
		}
	}
	if len(b.Rows[0]) != len(b.Columns) {
		t.Errorf("Expected %d values, got %d", len(b.Columns), len(b.Rows[0]))
	}
}

func TestExtractWritesBothSnapshots(t *testing.T) {
	now := time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC)
	env, store := entitytest.NewEnv(now, nil)
	env.YouTube = &entitytest.YouTube{Stats: map[string]youtube.Statistics{
		"yt1": {ViewCount: entitytest.Ptr("5")},
		"yt2": {ViewCount: entitytest.Ptr("6")},
		"yt3": {ViewCount: entitytest.Ptr("7")},
	}}
	env.Vimeo = &entitytest.Vimeo{Videos: map[string]vimeo.Video{
		"vm1": {Plays: entitytest.Ptr(int64(3))},
	}}
	keys := []Key{
		{MovieID: 1, Key: "yt1", Site: SiteYouTube},
		{MovieID: 1, Key: "yt2", Site: SiteYouTube},
		{MovieID: 2, Key: "yt3", Site: SiteYouTube},
		{MovieID: 2, Key: "vm1", Site: SiteVimeo},
		{MovieID: 3, Key: "vm404", Site: SiteVimeo},
	}
	start := now.AddDate(0, 0, -7)

	stats, err := Extract(context.Background(), env, keys, entitytest.UpdateBucket, start, now)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(stats[SiteYouTube]) != 3 || len(stats[SiteVimeo]) != 2 {
		t.Errorf("Expected 3 YouTube and 2 Vimeo entries, got %d and %d",
			len(stats[SiteYouTube]), len(stats[SiteVimeo]))
	}

	records := Join(keys, stats)
	if len(records) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(records))
	}
	if last := records[4]; last.VideoKeyID != "vm404" || last.Views != nil {
		t.Errorf("Expected failed Vimeo lookup to keep a null row, got %+v", last)
	}

	names, err := store.List(context.Background(), entitytest.UpdateBucket, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("Expected 2 snapshots, got %v", names)
	}

	read, err := Read(context.Background(), store, entitytest.UpdateBucket)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v := read[SiteVimeo]["vm1"].Views; v == nil || *v != 3 {
		t.Errorf("Expected stored Vimeo plays of 3, got %v", v)
	}
	if _, err := blobstore.ReadNDJSON[youtube.Video](context.Background(), store, entitytest.UpdateBucket,
		[]string{blobstore.SnapshotName(blobstore.PrefixYouTube, start, now, "ndjson")}); err != nil {
		t.Errorf("Expected YouTube snapshot readable, got %v", err)
	}
}

func TestExtractRequiresClients(t *testing.T) {
	env, _ := entitytest.NewEnv(time.Now(), nil)
	keys := []Key{{MovieID: 1, Key: "a", Site: SiteYouTube}}
	if _, err := Extract(context.Background(), env, keys, entitytest.RawBucket, time.Now(), time.Now()); err == nil {
		t.Error("Expected error without a YouTube client")
	}
}
