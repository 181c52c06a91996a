package tools

import "sort"

// MostRecent returns the n largest ids in descending order. AnkiConnect
// assigns note ids from creation timestamps, so larger means newer. ids is
// not modified. n larger than len(ids) returns every id.
func MostRecent(ids []int64, n int) []int64 {
	if n <= 0 || len(ids) == 0 {
		return []int64{}
	}

	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] > sorted[j]
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
