package accelhttp

import "github.com/tanq16/accel/internal/utils"

// ClampThreads bounds the thread count to [1, totalSize] so that no range is
// ever empty.
func ClampThreads(threads int, totalSize int64) int {
	n := int64(max(threads, 1))
	if totalSize > 0 && n > totalSize {
		n = totalSize
	}
	return int(n)
}

// Partition splits [0, totalSize-1] into contiguous, ascending, disjoint
// ranges, one per (clamped) thread. The last range absorbs the remainder.
func Partition(totalSize int64, threads int) []utils.RangeAssignment {
	if totalSize <= 0 {
		return nil
	}
	n := ClampThreads(threads, totalSize)
	chunk := totalSize / int64(n)
	ranges := make([]utils.RangeAssignment, 0, n)
	for i := range n {
		start := int64(i) * chunk
		end := int64(i+1)*chunk - 1
		remaining := (totalSize - 1) - end
		// remaining can equal chunk on the last index (e.g. 10 bytes over 4),
		// so the last index always closes the range
		if remaining < chunk || i == n-1 {
			end = totalSize - 1
		}
		ranges = append(ranges, utils.RangeAssignment{Index: i, Start: start, End: end})
	}
	return ranges
}
