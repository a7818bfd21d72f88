package blobstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Write(ctx, "raw", "raw_people_20240101_20240108.ndjson", []byte("{}\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Write(ctx, "raw", "raw_movie_details_20240101_20240108.ndjson", []byte("{}\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	names, err := store.List(ctx, "raw", "raw_movie")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "raw_movie_details_20240101_20240108.ndjson" {
		t.Errorf("Unexpected list result: %v", names)
	}

	if _, err := store.Read(ctx, "raw", "missing.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := store.Delete(ctx, "raw", names); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	names, _ = store.List(ctx, "raw", "")
	if len(names) != 1 {
		t.Errorf("Expected 1 object after delete, got %d", len(names))
	}
}

func TestDecodeDispatch(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  Format
		records int
		wantErr bool
	}{
		{"boxofficemojo_data_20212024.csv", "year,week,Release\n2021,1,Soul\n2021,2,Tenet\n", FormatCSV, 2, false},
		{"raw_people_20240101_20240108.ndjson", "{\"id\":1}\n\n{\"id\":2}\n", FormatNDJSON, 2, false},
		{"raw_collection_data.json", "{\"10\":{\"name\":\"Star Wars\"}}", FormatJSON, 0, false},
		{"notes.txt", "hello", "", 0, true},
		{"broken.ndjson", "{\"id\":1}\n{oops\n", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(tt.name, []byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if doc.Format != tt.format {
				t.Errorf("Expected format %s, got %s", tt.format, doc.Format)
			}
			if len(doc.Records) != tt.records {
				t.Errorf("Expected %d records, got %d", tt.records, len(doc.Records))
			}
			if tt.format == FormatJSON && doc.Object == nil {
				t.Error("Expected JSON object to be decoded")
			}
		})
	}
}

func TestDecodeCSVValues(t *testing.T) {
	rows, err := DecodeCSV([]byte("Rank,Release,Gross\n1,\"Dune, Part Two\",\"$1,000\"\n"))
	if err != nil {
		t.Fatalf("DecodeCSV failed: %v", err)
	}
	want := []map[string]string{{"Rank": "1", "Release": "Dune, Part Two", "Gross": "$1,000"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Expected %v, got %v", want, rows)
	}
}

func TestReadWriteNDJSON(t *testing.T) {
	type rec struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	ctx := context.Background()
	store := NewMemory()

	in := []rec{{1, "a"}, {2, "b"}}
	if err := WriteNDJSON(ctx, store, "b", "x.ndjson", in); err != nil {
		t.Fatalf("WriteNDJSON failed: %v", err)
	}
	if err := WriteNDJSON(ctx, store, "b", "y.ndjson", []rec{{3, "c"}}); err != nil {
		t.Fatalf("WriteNDJSON failed: %v", err)
	}

	out, err := ReadNDJSON[rec](ctx, store, "b", []string{"x.ndjson", "y.ndjson"})
	if err != nil {
		t.Fatalf("ReadNDJSON failed: %v", err)
	}
	if len(out) != 3 || out[2].Name != "c" {
		t.Errorf("Unexpected records: %v", out)
	}
}

func TestSnapshotNaming(t *testing.T) {
	start := time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	name := SnapshotName(PrefixMovies, start, end, "ndjson")
	if name != "raw_movie_details_20240403_20240410.ndjson" {
		t.Errorf("Unexpected snapshot name: %s", name)
	}

	snap, ok := ParseSnapshot(name)
	if !ok {
		t.Fatal("ParseSnapshot failed")
	}
	if snap.Prefix != PrefixMovies || !snap.Start.Equal(start) || !snap.End.Equal(end) {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}

	if got := BoxOfficeName(2021, 2024); got != "boxofficemojo_data_20212024.csv" {
		t.Errorf("Unexpected box office name: %s", got)
	}
}

func TestLatestBatch(t *testing.T) {
	names := []string{
		"raw_movie_details_20240101_20240108.ndjson",
		"raw_movie_details_20240108_20240115.ndjson",
		"raw_movie_details_20240108_20240115_part2.ndjson",
		"raw_movie_details_initial.ndjson",
		"raw_movie_details_20240110_20240115.ndjson",
	}
	got := LatestBatch(names)
	want := []string{
		"raw_movie_details_20240108_20240115.ndjson",
		"raw_movie_details_20240110_20240115.ndjson",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := LatestBatch(nil); len(got) != 0 {
		t.Errorf("Expected empty batch, got %v", got)
	}
}

func TestInRange(t *testing.T) {
	names := []string{
		"raw_people_20240101_20240108.ndjson",
		"raw_people_20240108_20240115.ndjson",
	}
	got := InRange(names,
		time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if len(got) != 1 || got[0] != names[1] {
		t.Errorf("Unexpected range result: %v", got)
	}
}
