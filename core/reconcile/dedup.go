package reconcile

// Unique collapses consecutive elements with equal keys, keeping the first
// element of every run. items must be sorted so that equal keys are adjacent.
//
// The slice is compacted in place and the shortened slice is returned.
// onDuplicate, if not nil, receives the kept and the discarded element.
func Unique[T any, K comparable](items []T, key func(T) K, onDuplicate func(kept, dropped T)) []T {
	if len(items) < 2 {
		return items
	}
	out := items[:1]
	last := key(items[0])
	for _, item := range items[1:] {
		k := key(item)
		if k == last {
			if onDuplicate != nil {
				onDuplicate(out[len(out)-1], item)
			}
			continue
		}
		out = append(out, item)
		last = k
	}
	return out
}
