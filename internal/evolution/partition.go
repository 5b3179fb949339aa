package evolution

import "fmt"

// Range is a half-open index interval [Start, End) of population slots.
type Range struct {
	Start int
	End   int
}

// Len returns the number of slots in r.
func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Partition splits r into n contiguous ranges whose lengths differ by at
// most one, the longer ranges coming last. The ranges are pairwise disjoint
// and their union is r. When r is shorter than n the leading ranges are
// empty.
func Partition(r Range, n int) []Range {
	if n < 1 {
		n = 1
	}
	out := make([]Range, n)
	chunk, extra := r.Len()/n, r.Len()%n
	start := r.Start
	for i := range out {
		end := start + chunk
		if i >= n-extra {
			end++
		}
		out[i] = Range{Start: start, End: end}
		start = end
	}
	return out
}

// greedyRanges assigns worker i the triple [3i, 3i+3).
func greedyRanges(workers int) []Range {
	out := make([]Range, workers)
	for i := range out {
		out[i] = Range{Start: 3 * i, End: 3*i + 3}
	}
	return out
}
