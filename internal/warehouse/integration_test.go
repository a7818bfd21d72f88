//go:build integration
// +build integration

// Integration tests for the warehouse write paths.
// Run with: go test -tags=integration ./internal/warehouse/...
// Set BOXOFFICE_TEST_CONN to override the connection string.

package warehouse_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/testutil"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

var peopleTable = warehouse.TableSchema{
	Name: "people",
	Columns: []warehouse.Column{
		{Name: "people_id", Type: "BIGINT"},
		{Name: "name", Type: "TEXT", Nullable: true},
		{Name: "tmdb_popularity", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: warehouse.InsertionColumn, Type: "TIMESTAMPTZ"},
	},
	PrimaryKey: []string{"people_id"},
}

func ptr[T any](v T) *T { return &v }

func peopleBatch(rows ...[]any) *warehouse.Batch {
	b := warehouse.NewBatch("people_id", "name", "tmdb_popularity")
	for _, r := range rows {
		_ = b.Append(r...)
	}
	return b
}

func readPeople(t *testing.T, w *warehouse.Warehouse) map[int64][2]any {
	t.Helper()
	res, err := w.Query(context.Background(),
		"SELECT people_id, name, tmdb_popularity FROM "+w.Table("people"))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	out := make(map[int64][2]any)
	for _, row := range res.Rows {
		out[row[0].(int64)] = [2]any{row[1], row[2]}
	}
	return out
}

func TestLoadModes(t *testing.T) {
	w := testutil.NewTestWarehouse(t, "load", peopleTable)
	ctx := context.Background()

	n, err := w.Load(ctx, "people", peopleBatch(
		[]any{int64(1), ptr("Ada"), ptr(1.5)},
		[]any{int64(2), ptr("Grace"), ptr(2.5)},
	), warehouse.LoadEmptyOnly)
	if err != nil {
		t.Fatalf("Empty-only load failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 rows, got %d", n)
	}

	_, err = w.Load(ctx, "people", peopleBatch([]any{int64(3), ptr("Linus"), nil}), warehouse.LoadEmptyOnly)
	if !errors.Is(err, warehouse.ErrTableNotEmpty) {
		t.Errorf("Expected ErrTableNotEmpty, got %v", err)
	}

	if _, err := w.Load(ctx, "people", peopleBatch([]any{int64(3), ptr("Linus"), nil}), warehouse.LoadAppend); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if count, _ := w.Count(ctx, "people"); count != 3 {
		t.Errorf("Expected 3 rows after append, got %d", count)
	}

	if _, err := w.Load(ctx, "people", peopleBatch([]any{int64(9), ptr("Solo"), nil}), warehouse.LoadTruncate); err != nil {
		t.Fatalf("Truncate load failed: %v", err)
	}
	people := readPeople(t, w)
	if len(people) != 1 || people[9][0] != "Solo" {
		t.Errorf("Expected the table replaced by one row, got %v", people)
	}

	if _, ok, err := w.MaxInsertion(ctx, "people"); err != nil || !ok {
		t.Errorf("Expected an insertion time, got ok=%v err=%v", ok, err)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	w := testutil.NewTestWarehouse(t, "upsert", peopleTable)
	ctx := context.Background()

	batch := peopleBatch(
		[]any{int64(1), ptr("Ada"), ptr(1.0)},
		[]any{int64(2), ptr("Grace"), ptr(2.0)},
		[]any{int64(1), ptr("Ada Lovelace"), ptr(3.0)},
	)
	for i := 0; i < 2; i++ {
		if _, err := w.Merge(ctx, "people", batch, warehouse.MergeUpsert); err != nil {
			t.Fatalf("Merge %d failed: %v", i, err)
		}
	}

	people := readPeople(t, w)
	if len(people) != 2 {
		t.Fatalf("Expected 2 rows after repeated upsert, got %d", len(people))
	}
	if people[1][0] != "Ada Lovelace" {
		t.Errorf("Expected the last duplicate to win, got %v", people[1][0])
	}
}

func TestUpdateOnlyPreservesNulls(t *testing.T) {
	w := testutil.NewTestWarehouse(t, "update", peopleTable)
	ctx := context.Background()

	if _, err := w.Load(ctx, "people", peopleBatch(
		[]any{int64(1), ptr("Ada"), ptr(1.0)},
	), warehouse.LoadAppend); err != nil {
		t.Fatalf("Seed load failed: %v", err)
	}
	before, _, _ := w.MaxInsertion(ctx, "people")
	time.Sleep(10 * time.Millisecond)

	n, err := w.Merge(ctx, "people", peopleBatch(
		[]any{int64(1), nil, ptr(9.0)},
		[]any{int64(2), ptr("Unmatched"), ptr(5.0)},
	), warehouse.MergeUpdateOnly)
	if err != nil {
		t.Fatalf("Update merge failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 updated row, got %d", n)
	}

	people := readPeople(t, w)
	if len(people) != 1 {
		t.Errorf("Expected unmatched rows to be ignored, got %v", people)
	}
	if people[1][0] != "Ada" {
		t.Errorf("Expected null to keep the existing name, got %v", people[1][0])
	}
	if people[1][1] != 9.0 {
		t.Errorf("Expected popularity 9, got %v", people[1][1])
	}

	after, _, _ := w.MaxInsertion(ctx, "people")
	if !after.After(before) {
		t.Errorf("Expected insertion time refreshed, before=%v after=%v", before, after)
	}
}

func TestApplyChangesRollsBackOnFailedMerge(t *testing.T) {
	w := testutil.NewTestWarehouse(t, "changes", peopleTable)
	ctx := context.Background()

	if _, err := w.Load(ctx, "people", peopleBatch(
		[]any{int64(1), ptr("Ada"), ptr(1.0)},
	), warehouse.LoadAppend); err != nil {
		t.Fatalf("Seed load failed: %v", err)
	}

	fresh := peopleBatch([]any{int64(2), ptr("Grace"), ptr(2.0)})
	broken := peopleBatch([]any{int64(1), ptr("Ada"), "not a number"})
	if _, err := w.ApplyChanges(ctx, "people", fresh, broken); err == nil {
		t.Fatal("Expected the merge of a mistyped value to fail")
	}
	if count, _ := w.Count(ctx, "people"); count != 1 {
		t.Fatalf("Expected the append rolled back, got %d rows", count)
	}

	known := peopleBatch([]any{int64(1), nil, ptr(9.0)})
	n, err := w.ApplyChanges(ctx, "people", fresh, known)
	if err != nil {
		t.Fatalf("Expected the rerun to succeed, got %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 rows written, got %d", n)
	}

	people := readPeople(t, w)
	if len(people) != 2 {
		t.Fatalf("Expected 2 rows after the rerun, got %v", people)
	}
	if people[2][0] != "Grace" {
		t.Errorf("Expected Grace appended, got %v", people[2][0])
	}
	if people[1][0] != "Ada" || people[1][1] != 9.0 {
		t.Errorf("Expected Ada updated to popularity 9, got %v", people[1])
	}
}

func TestRunLedger(t *testing.T) {
	w := testutil.NewTestWarehouse(t, "runs", warehouse.RunsSchema)
	ctx := context.Background()

	if _, ok, err := w.LastSuccessfulRun(ctx, "movie"); err != nil || ok {
		t.Fatalf("Expected no prior run, got ok=%v err=%v", ok, err)
	}

	run, err := w.StartRun(ctx, "movie", "update")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := w.FinishRun(ctx, run, 12, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	failed, _ := w.StartRun(ctx, "movie", "update")
	_ = w.FinishRun(ctx, failed, 0, errors.New("boom"))

	last, ok, err := w.LastSuccessfulRun(ctx, "movie")
	if err != nil || !ok {
		t.Fatalf("Expected a successful run, got ok=%v err=%v", ok, err)
	}
	if last.ID != run.ID || last.Rows != 12 {
		t.Errorf("Expected run %s with 12 rows, got %s with %d", run.ID, last.ID, last.Rows)
	}

	runs, err := w.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("Expected 2 runs, got %d", len(runs))
	}
}
