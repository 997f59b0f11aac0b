// Package timeindex provides the binary-search lookup shared by transcript
// alignment and segment-boundary search.
package timeindex

// LastIndexAtOrBefore returns the highest index i such that values[i] <=
// target, assuming values is sorted in non-decreasing order. Returns -1 when
// no element satisfies the condition: the target precedes the first element,
// the slice is empty, or every entry is non-finite. NaN entries never satisfy
// <= target and are skipped over by the comparison itself.
func LastIndexAtOrBefore(values []float64, target float64) int {
	lo, hi := 0, len(values)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		// NaN comparisons are always false, so a NaN entry falls into
		// the "too large" branch and is never returned.
		if values[mid] <= target {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}
