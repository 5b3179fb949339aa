package evolution

// sortIndividuals orders s so that s[0] is the best individual under better.
// Input that is already ordered is left untouched, so ties keep their
// relative order across repeated sorts of unchanged fitness values.
func sortIndividuals[T any](s []*Individual[T], better func(a, b int64) bool, minQuicksort int) {
	if isOrdered(s, better) {
		return
	}
	quickSort(s, better, minQuicksort)
}

func isOrdered[T any](s []*Individual[T], better func(a, b int64) bool) bool {
	for i := 1; i < len(s); i++ {
		if better(s[i].Fitness, s[i-1].Fitness) {
			return false
		}
	}
	return true
}

// quickSort recurses into the smaller partition and loops on the larger one,
// bounding the stack depth by log2(len(s)).
func quickSort[T any](s []*Individual[T], better func(a, b int64) bool, minQuicksort int) {
	for len(s) > minQuicksort {
		lt, gt := partition(s, better)
		if lt < len(s)-gt {
			quickSort(s[:lt], better, minQuicksort)
			s = s[gt:]
		} else {
			quickSort(s[gt:], better, minQuicksort)
			s = s[:lt]
		}
	}
	insertionSort(s, better)
}

// partition splits s around a median-of-three pivot into
// [0,lt) better, [lt,gt) equal, [gt,len) worse.
func partition[T any](s []*Individual[T], better func(a, b int64) bool) (lt, gt int) {
	pivot := medianOfThree(s[0].Fitness, s[len(s)/2].Fitness, s[len(s)-1].Fitness, better)
	lt, i, gt := 0, 0, len(s)
	for i < gt {
		f := s[i].Fitness
		switch {
		case better(f, pivot):
			s[lt], s[i] = s[i], s[lt]
			lt++
			i++
		case better(pivot, f):
			gt--
			s[i], s[gt] = s[gt], s[i]
		default:
			i++
		}
	}
	return lt, gt
}

func medianOfThree(a, b, c int64, better func(a, b int64) bool) int64 {
	if better(b, a) {
		a, b = b, a
	}
	if better(c, b) {
		b = c
		if better(b, a) {
			b = a
		}
	}
	return b
}

func insertionSort[T any](s []*Individual[T], better func(a, b int64) bool) {
	for i := 1; i < len(s); i++ {
		cur := s[i]
		j := i
		for j > 0 && better(cur.Fitness, s[j-1].Fitness) {
			s[j] = s[j-1]
			j--
		}
		s[j] = cur
	}
}
