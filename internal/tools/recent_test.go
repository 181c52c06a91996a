package tools

import (
	"math/rand"
	"sort"
	"testing"
)

func TestMostRecent(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		n    int
		want []int64
	}{
		{"scenario", []int64{5, 3, 9, 1}, 2, []int64{9, 5}},
		{"all", []int64{5, 3, 9, 1}, 4, []int64{9, 5, 3, 1}},
		{"more than available", []int64{2, 1}, 200, []int64{2, 1}},
		{"zero", []int64{2, 1}, 0, []int64{}},
		{"negative", []int64{2, 1}, -1, []int64{}},
		{"empty", nil, 3, []int64{}},
		{"already sorted", []int64{10, 8, 6}, 2, []int64{10, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MostRecent(tt.ids, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("MostRecent(%v, %d) = %v, want %v", tt.ids, tt.n, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("MostRecent(%v, %d) = %v, want %v", tt.ids, tt.n, got, tt.want)
				}
			}
		})
	}
}

func TestMostRecentDoesNotModifyInput(t *testing.T) {
	ids := []int64{5, 3, 9, 1}
	MostRecent(ids, 2)
	if ids[0] != 5 || ids[1] != 3 || ids[2] != 9 || ids[3] != 1 {
		t.Errorf("input was modified: %v", ids)
	}
}

// For random id sets, the result is the top-n slice of the descending order.
func TestMostRecentProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for iter := 0; iter < 200; iter++ {
		seen := make(map[int64]bool)
		var ids []int64
		for i := r.Intn(50); i > 0; i-- {
			id := r.Int63n(1 << 40)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		n := r.Intn(60)

		got := MostRecent(ids, n)

		want := min(n, len(ids))
		if len(got) != want {
			t.Fatalf("len = %d, want %d", len(got), want)
		}

		desc := append([]int64(nil), ids...)
		sort.Slice(desc, func(i, j int) bool { return desc[i] > desc[j] })
		for i := range got {
			if !seen[got[i]] {
				t.Fatalf("id %d not in input", got[i])
			}
			if got[i] != desc[i] {
				t.Fatalf("position %d = %d, want %d", i, got[i], desc[i])
			}
			if i > 0 && got[i] >= got[i-1] {
				t.Fatalf("not strictly descending: %v", got)
			}
		}
	}
}
