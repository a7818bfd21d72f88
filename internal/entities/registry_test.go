package entities_test

import (
	"testing"

	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	// Import entity packages to trigger their init() functions which register the entities
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/collection"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/movie"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/performance"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/person"
	_ "github.com/pgEdge/pgedge-boxoffice/internal/entities/videostats"
)

var runOrder = []string{
	"movie",
	"people",
	"video_stats",
	"collection",
	"weekly_domestic_performance",
}

func TestListRunOrder(t *testing.T) {
	names := entities.List()
	if len(names) != len(runOrder) {
		t.Fatalf("Expected %d entities, got %v", len(runOrder), names)
	}
	for i, name := range runOrder {
		if names[i] != name {
			t.Errorf("Expected %s at position %d, got %s", name, i, names[i])
		}
	}
}

func TestGet(t *testing.T) {
	for _, name := range runOrder {
		t.Run(name, func(t *testing.T) {
			e, err := entities.Get(name)
			if err != nil {
				t.Fatalf("Failed to get entity '%s': %v", name, err)
			}
			if e.Description() == "" {
				t.Error("Description() should not be empty")
			}
			schema := e.Table()
			if schema.Name != name {
				t.Errorf("Expected table %s, got %s", name, schema.Name)
			}
			if len(schema.PrimaryKey) == 0 {
				t.Error("Expected a primary key")
			}
			for _, k := range schema.PrimaryKey {
				if !schema.Has(k) {
					t.Errorf("Primary key column %s missing from schema", k)
				}
			}
		})
	}
}

func TestGetInvalidEntity(t *testing.T) {
	if _, err := entities.Get("nonexistent"); err == nil {
		t.Error("Expected error for nonexistent entity, got nil")
	}
}

func TestSelect(t *testing.T) {
	es, err := entities.Select("collection", "movie", "movie")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(es) != 2 || es[0].Name() != "movie" || es[1].Name() != "collection" {
		t.Errorf("Expected movie then collection, got %v", es)
	}

	all, err := entities.Select()
	if err != nil || len(all) != len(runOrder) {
		t.Errorf("Expected every entity for no names, got %d (%v)", len(all), err)
	}

	if _, err := entities.Select("movie", "bogus"); err == nil {
		t.Error("Expected error for unknown entity")
	}
}
