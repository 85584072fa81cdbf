// sort.go - child-name ordering
//
// Children are kept in pure lexicographic, case-insensitive order,
// ties broken by code-point order; no "natural"/numeric-aware
// comparator.
//
// Licensing Terms: GPLv2

package ptree

import (
	"sort"
	"strings"
)

// ParallelSortThreshold is the child-count above which SortNames uses a
// parallel merge instead of a single sequential sort.Slice.
const ParallelSortThreshold = 100

// less implements the pinned ordering: case-insensitive lexicographic,
// code-point tiebreak.
func less(a, b string) bool {
	fa, fb := strings.ToUpper(a), strings.ToUpper(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}

// SortNames sorts names in place per the pinned child ordering. Below
// ParallelSortThreshold it always does a sequential sort, to avoid
// parallelization overhead on the common case of small directories.
func SortNames(names []string) {
	if len(names) < ParallelSortThreshold {
		sort.Slice(names, func(i, j int) bool { return less(names[i], names[j]) })
		return
	}
	parallelSort(names)
}

// parallelSort splits names into four chunks, sorts each chunk
// concurrently via WorkPool, then merges. Used only above
// ParallelSortThreshold, where the sort cost can outweigh the
// fork/merge overhead.
func parallelSort(names []string) {
	nchunks := 4
	if nchunks > len(names) {
		nchunks = 1
	}

	chunkSize := (len(names) + nchunks - 1) / nchunks
	chunks := make([][]string, 0, nchunks)
	for i := 0; i < len(names); i += chunkSize {
		end := i + chunkSize
		if end > len(names) {
			end = len(names)
		}
		chunks = append(chunks, names[i:end])
	}

	wp := NewWorkPool[[]string](len(chunks), func(_ int, chunk []string) error {
		sort.Slice(chunk, func(i, j int) bool { return less(chunk[i], chunk[j]) })
		return nil
	})
	for _, c := range chunks {
		wp.Submit(c)
	}
	wp.Close()
	_ = wp.Wait()

	merged := make([]string, 0, len(names))
	idx := make([]int, len(chunks))
	for {
		best := -1
		for ci, c := range chunks {
			if idx[ci] >= len(c) {
				continue
			}
			if best == -1 || less(c[idx[ci]], chunks[best][idx[best]]) {
				best = ci
			}
		}
		if best == -1 {
			break
		}
		merged = append(merged, chunks[best][idx[best]])
		idx[best]++
	}
	copy(names, merged)
}
