//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"strings"
	"testing"
)

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
	if f1.Title() != f2.Title() {
		t.Error("Same seed produced different titles")
	}
}

func TestFakerTitle(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 20; i++ {
		title := f.Title()
		if title == "" {
			t.Fatal("Title returned empty string")
		}
		if first := title[:1]; first != strings.ToUpper(first) {
			t.Errorf("Expected title case, got %q", title)
		}
	}
}

func TestFakerVideoKey(t *testing.T) {
	if key := NewFaker().VideoKey(); len(key) != 11 {
		t.Errorf("Expected 11 character key, got %q", key)
	}
}

func TestFakerInt64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int64(100, 200)
		if v < 100 || v > 200 {
			t.Errorf("Int64(100, 200) returned %d, out of range", v)
		}
	}
}

func TestChance(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 50; i++ {
		if f.Chance(0) {
			t.Fatal("Chance(0) returned true")
		}
		if !f.Chance(1) {
			t.Fatal("Chance(1) returned false")
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}

	for i := 0; i < 100; i++ {
		result := Choose(f, items)
		if result != "a" && result != "b" && result != "c" {
			t.Errorf("Choose returned unexpected value: %s", result)
		}
	}

	if got := Choose(f, []int{}); got != 0 {
		t.Errorf("Expected zero value for empty slice, got %d", got)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFaker()
	items := []string{"rare", "common"}
	weights := []int{0, 100}

	for i := 0; i < 100; i++ {
		if got := ChooseWeighted(f, items, weights); got != "common" {
			t.Fatalf("Expected only weighted items, got %s", got)
		}
	}
}

func TestChartFigures(t *testing.T) {
	tests := []struct {
		n         int64
		thousands string
		dollars   string
	}{
		{0, "0", "$0"},
		{999, "999", "$999"},
		{4203, "4,203", "$4,203"},
		{14000000, "14,000,000", "$14,000,000"},
	}
	for _, tt := range tests {
		if got := Thousands(tt.n); got != tt.thousands {
			t.Errorf("Expected %s, got %s", tt.thousands, got)
		}
		if got := Dollars(tt.n); got != tt.dollars {
			t.Errorf("Expected %s, got %s", tt.dollars, got)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d): expected %s, got %s", tt.bytes, tt.want, got)
		}
	}
}
