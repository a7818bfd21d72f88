package boxoffice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/match"
)

const chartPage = `<html><body>
<table class="a-bordered mojo-body-table">
<tr><th>Rank</th><th>LW</th><th>Release</th><th class="a-text-right hidden">Hidden</th><th>Gross</th><th>Theaters</th><th>Weeks</th></tr>
<tr><td>1</td><td>-</td><td><a href="/release/rl1">Dune: Part Two</a></td><td class="hidden">x</td><td>$82,505,391</td><td>4,071</td><td>1</td></tr>
<tr><td>2</td><td>1</td><td>Kung Fu
Panda 4</td><td>$30,000,000</td><td>-</td><td>-</td></tr>
<tr><td colspan="2">Totals</td></tr>
</table>
</body></html>`

func TestParseChart(t *testing.T) {
	chart, err := ParseChart([]byte(chartPage))
	if err != nil {
		t.Fatalf("ParseChart failed: %v", err)
	}

	wantHeaders := []string{"Rank", "LW", "Release", "Gross", "Theaters", "Weeks"}
	if len(chart.Headers) != len(wantHeaders) {
		t.Fatalf("Expected headers %v, got %v", wantHeaders, chart.Headers)
	}
	for i, h := range wantHeaders {
		if chart.Headers[i] != h {
			t.Errorf("Expected header %d to be %s, got %s", i, h, chart.Headers[i])
		}
	}

	if len(chart.Rows) != 2 {
		t.Fatalf("Expected 2 rows (short rows skipped), got %d", len(chart.Rows))
	}
	if chart.Rows[0]["Release"] != "Dune: Part Two" || chart.Rows[0]["Gross"] != "$82,505,391" {
		t.Errorf("Unexpected first row %v", chart.Rows[0])
	}
	if chart.Rows[1]["Release"] != "Kung FuPanda 4" {
		t.Errorf("Expected newlines removed, got %q", chart.Rows[1]["Release"])
	}
}

func TestParseChartWithoutTable(t *testing.T) {
	chart, err := ParseChart([]byte(`<html><body><p>No data</p></body></html>`))
	if err != nil {
		t.Fatalf("ParseChart failed: %v", err)
	}
	if len(chart.Rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(chart.Rows))
	}
}

func TestWeekly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weekly/2024W09/" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(chartPage))
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	chart, err := c.Weekly(context.Background(), 2024, 9)
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}
	if chart.Rows[0][ColumnYear] != "2024" || chart.Rows[0][ColumnWeek] != "9" {
		t.Errorf("Expected year and week columns, got %v", chart.Rows[0])
	}
}

func TestWeeklyValidatesBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c, _ := New(server.URL)
	c.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	for _, p := range [][2]int{{1981, 1}, {2024, 53}, {2025, 1}, {2024, 30}} {
		if _, err := c.Weekly(context.Background(), p[0], p[1]); !errors.Is(err, match.ErrInvalidPeriod) {
			t.Errorf("Expected ErrInvalidPeriod for %v, got %v", p, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no requests for invalid periods, got %d", calls.Load())
	}
}
