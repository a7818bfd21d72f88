package datagen

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/blobstore"
	"github.com/pgEdge/pgedge-boxoffice/internal/entities/performance"
	"github.com/pgEdge/pgedge-boxoffice/internal/match"
)

func testConfig() SampleConfig {
	cfg := DefaultSampleConfig(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	cfg.Seed = 42
	return cfg
}

func TestSampleConfigValidate(t *testing.T) {
	if err := testConfig().Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}

	bad := testConfig()
	bad.FromYear = bad.ToYear + 1
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for inverted years")
	}

	bad = testConfig()
	bad.Movies = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero movies")
	}
}

func TestCorpusReferencesResolve(t *testing.T) {
	c := NewCorpus(testConfig())
	if len(c.Movies) != 200 {
		t.Fatalf("Expected 200 movies, got %d", len(c.Movies))
	}

	people := make(map[int64]bool)
	for _, p := range c.People {
		people[p.ID] = true
	}
	youtubeKeys := make(map[string]bool)
	for _, v := range c.YouTube {
		youtubeKeys[v.ID] = true
	}

	for _, m := range c.Movies {
		for _, cast := range m.Credits.Cast {
			if !people[cast.ID] {
				t.Errorf("Movie %d credits unknown person %d", m.ID, cast.ID)
			}
		}
		if ref := m.BelongsToCollection; ref != nil {
			if _, ok := c.Collections[strconv.FormatInt(ref.ID, 10)]; !ok {
				t.Errorf("Movie %d references unknown collection %d", m.ID, ref.ID)
			}
		}
		for _, v := range m.Videos.Results {
			if v.Site == "YouTube" && !youtubeKeys[v.Key] {
				t.Errorf("Movie %d video %s has no statistics", m.ID, v.Key)
			}
		}
	}
}

func TestCorpusChartsMatchCatalogue(t *testing.T) {
	c := NewCorpus(testConfig())
	if len(c.Charts) == 0 {
		t.Fatal("Expected charted weeks")
	}

	header, rows := performance.ChartRecords(c.Charts)
	records := make([]map[string]string, len(rows))
	for i, row := range rows {
		records[i] = make(map[string]string)
		for j, h := range header {
			records[i][h] = row[j]
		}
	}
	parsed, skipped := performance.ParseRows(records)
	if skipped != 0 {
		t.Errorf("Expected every chart row to parse, got %d skipped", skipped)
	}

	_, stats := match.New(match.DefaultMaxDaysDiff).Match(parsed, performance.Catalogue(c.Movies))
	if stats.Matched == 0 {
		t.Error("Expected matched rows")
	}
	if stats.NoCandidate != 0 || stats.Rejected != 0 || stats.BadPeriod != 0 {
		t.Errorf("Expected every non re-release row to match, got %+v", stats)
	}
}

func TestCorpusWrite(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemory()
	c := NewCorpus(testConfig())
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	summary, err := c.Write(ctx, store, "raw", start, c.cfg.Now)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if summary.Objects != 7 || summary.Bytes == 0 {
		t.Errorf("Expected 7 non-empty objects, got %d (%d bytes)", summary.Objects, summary.Bytes)
	}

	names, err := store.List(ctx, "raw", blobstore.PrefixBoxOffice)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "boxofficemojo_data_20222024.csv" {
		t.Errorf("Expected box office export, got %v", names)
	}

	movies, err := blobstore.ReadNDJSON[map[string]any](ctx, store, "raw",
		[]string{blobstore.SnapshotName(blobstore.PrefixMovies, start, c.cfg.Now, "ndjson")})
	if err != nil {
		t.Fatalf("ReadNDJSON failed: %v", err)
	}
	if len(movies) != len(c.Movies) {
		t.Errorf("Expected %d stored movies, got %d", len(c.Movies), len(movies))
	}
}
