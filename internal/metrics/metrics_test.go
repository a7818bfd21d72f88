package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveWrite(t *testing.T) {
	before := testutil.ToFloat64(RowsLoaded.WithLabelValues("movie", "append"))

	ObserveWrite("movie", "append", 42, time.Now())

	after := testutil.ToFloat64(RowsLoaded.WithLabelValues("movie", "append"))
	if after-before != 42 {
		t.Errorf("Expected 42 rows recorded, got %v", after-before)
	}
}

func TestRegistryGathers(t *testing.T) {
	APIRequests.WithLabelValues("tmdb", "200").Inc()
	MatchOutcomes.WithLabelValues("matched").Inc()

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"boxoffice_api_requests_total",
		"boxoffice_match_outcomes_total",
	} {
		if !names[want] {
			t.Errorf("Expected metric %s to be registered", want)
		}
	}
}
