package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLockExclusive(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	unlock, err := l.Lock(context.Background(), "movie_dataset.movie")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "movie_dataset.movie"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected second writer to time out, got %v", err)
	}

	if err := unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	again, err := l.Lock(context.Background(), "movie_dataset.movie")
	if err != nil {
		t.Fatalf("Expected lock after release, got %v", err)
	}
	_ = again()
}

func TestLocksAreIndependentPerName(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a, err := l.Lock(context.Background(), "ds.movie")
	if err != nil {
		t.Fatalf("Lock a failed: %v", err)
	}
	defer a()

	b, err := l.Lock(context.Background(), "ds.people")
	if err != nil {
		t.Fatalf("Expected a different table to lock, got %v", err)
	}
	defer b()
}
