package interval

import (
	"sort"
)

// Search returns the index of x in a[], or the position where x would be
// inserted if x isn't in a (this could be len(a)).  It's exactly the same as
// sort.SearchInts(), except for int64.
func Search(a []int64, x int64) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// FwdSearch checks a[idx], then a[idx + 1], then a[idx + 3], then a[idx + 7],
// etc., and then uses binary search to finish the job.  It returns the same
// value as Search(a, x) as long as idx <= Search(a, x).  It's usually a better
// choice than Search when iterating over sorted queries.
func FwdSearch(a []int64, x int64, idx int) int {
	nextIncr := 1
	startIdx := idx
	endIdx := len(a)
	for idx < endIdx {
		if a[idx] >= x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := int(uint(startIdx+endIdx) >> 1)
		if a[midIdx] >= x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// SearchAll returns Search(a, x) for every x in xs.  Runs of nondecreasing
// queries are resolved with FwdSearch from the previous answer.
func SearchAll(a []int64, xs []int64) []int {
	ranks := make([]int, len(xs))
	sequential := false
	var prevX int64
	prevIdx := 0
	for i, x := range xs {
		if sequential && x >= prevX {
			prevIdx = FwdSearch(a, x, prevIdx)
		} else {
			prevIdx = Search(a, x)
		}
		ranks[i] = prevIdx
		prevX = x
		sequential = true
	}
	return ranks
}

// Contains reports whether x is present in the sorted slice a.
func Contains(a []int64, x int64) bool {
	i := Search(a, x)
	return i < len(a) && a[i] == x
}
