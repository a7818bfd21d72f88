package changeset

import (
	"reflect"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		source     []int64
		warehouse  []int64
		recent     []int64
		wantAdd    []int64
		wantUpdate []int64
	}{
		{
			name:       "new and changed",
			source:     []int64{5, 1, 2, 3},
			warehouse:  []int64{1, 2, 9},
			recent:     []int64{2, 9, 42},
			wantAdd:    []int64{3, 5},
			wantUpdate: []int64{2, 9},
		},
		{
			name:      "empty warehouse adds everything",
			source:    []int64{3, 1},
			wantAdd:   []int64{1, 3},
			recent:    []int64{1},
			warehouse: nil,
		},
		{
			name:      "nothing new",
			source:    []int64{1, 2},
			warehouse: []int64{1, 2},
		},
		{
			name: "all empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := Resolve(NewKeySet(tt.source...), NewKeySet(tt.warehouse...), NewKeySet(tt.recent...))
			if !reflect.DeepEqual(cs.ToAdd, tt.wantAdd) {
				t.Errorf("Expected ToAdd %v, got %v", tt.wantAdd, cs.ToAdd)
			}
			if !reflect.DeepEqual(cs.ToUpdate, tt.wantUpdate) {
				t.Errorf("Expected ToUpdate %v, got %v", tt.wantUpdate, cs.ToUpdate)
			}
			if cs.Empty() != (len(tt.wantAdd) == 0 && len(tt.wantUpdate) == 0) {
				t.Errorf("Empty() disagrees with contents %+v", cs)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	source := NewKeySet[int64](4, 8, 15, 16, 23, 42)
	wh := NewKeySet[int64](8, 16, 42)
	recent := NewKeySet[int64](42, 4)

	first := Resolve(source, wh, recent)
	second := Resolve(source, wh, recent)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical change sets, got %+v and %+v", first, second)
	}

	// Once additions land, a second pass has nothing left to add.
	wh.Add(first.ToAdd...)
	after := Resolve(source, wh, recent)
	if len(after.ToAdd) != 0 {
		t.Errorf("Expected no additions after applying, got %v", after.ToAdd)
	}
	if !reflect.DeepEqual(after.ToUpdate, []int64{4, 42}) {
		t.Errorf("Expected updates [4 42], got %v", after.ToUpdate)
	}
}

func TestChangeSetDisjoint(t *testing.T) {
	cs := Resolve(NewKeySet[int64](1, 2, 3), NewKeySet[int64](2), NewKeySet[int64](1, 2, 3))
	seen := NewKeySet(cs.ToAdd...)
	for _, k := range cs.ToUpdate {
		if seen.Has(k) {
			t.Errorf("Key %d is both added and updated", k)
		}
	}
	if got := cs.All(); !reflect.DeepEqual(got, []int64{1, 3, 2}) {
		t.Errorf("Expected All [1 3 2], got %v", got)
	}
}

func TestSorted(t *testing.T) {
	if got := Sorted(NewKeySet("b", "a", "c")); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected sorted keys, got %v", got)
	}
}

func TestResolveWindow(t *testing.T) {
	end := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	last := end.Add(-72 * time.Hour)
	latest := end.Add(-24 * time.Hour)
	week := 7 * 24 * time.Hour

	tests := []struct {
		name      string
		last      *time.Time
		latest    *time.Time
		wantStart time.Time
	}{
		{"last successful run", &last, &latest, last},
		{"latest insertion batch", nil, &latest, latest},
		{"empty table", nil, nil, end.Add(-week)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ResolveWindow(end, tt.last, tt.latest, week)
			if !w.Start.Equal(tt.wantStart) || !w.End.Equal(end) {
				t.Errorf("Expected [%v, %v), got [%v, %v)", tt.wantStart, end, w.Start, w.End)
			}
			if !w.Contains(tt.wantStart) || w.Contains(end) {
				t.Errorf("Expected half-open window, got %+v", w)
			}
		})
	}
}
