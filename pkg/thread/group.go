package thread

import "iter"

// GroupContinuous clusters a sequence into contiguous runs, starting a
// new run whenever the adjacency predicate rejects the pair of the
// previous and current items. The returned sequence is lazy and finite;
// the trailing run is always yielded, so an empty input produces one
// empty run.
func GroupContinuous[T any](seq iter.Seq[T], adjacent func(prev, cur T) bool) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		var group []T
		var prev T
		first := true

		for cur := range seq {
			if first || adjacent(prev, cur) {
				group = append(group, cur)
			} else {
				if !yield(group) {
					return
				}
				group = []T{cur}
			}
			prev = cur
			first = false
		}
		yield(group)
	}
}
