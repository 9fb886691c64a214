package reconcile

import (
	"cmp"
	"fmt"
)

// Diff walks a and b, both strictly ascending by their ordering keys, in a
// single pass.
//
// Elements with equal keys are always matched. both reports whether a matched
// pair counts as a change; onlyA and onlyB receive unmatched elements, which
// always count as a change. Any callback may be nil.
//
// Diff returns true if any element was unmatched or any matched pair differed.
func Diff[A, B any, K cmp.Ordered](
	a []A,
	b []B,
	keyA func(A) K,
	keyB func(B) K,
	both func(A, B) bool,
	onlyA func(A),
	onlyB func(B),
) bool {
	checkSorted("a", a, keyA)
	checkSorted("b", b, keyB)

	changed := false
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := cmp.Compare(keyA(a[i]), keyB(b[j])); {
		case c == 0:
			if both != nil && both(a[i], b[j]) {
				changed = true
			}
			i++
			j++
		case c < 0:
			if onlyA != nil {
				onlyA(a[i])
			}
			changed = true
			i++
		default:
			if onlyB != nil {
				onlyB(b[j])
			}
			changed = true
			j++
		}
	}
	for ; i < len(a); i++ {
		if onlyA != nil {
			onlyA(a[i])
		}
		changed = true
	}
	for ; j < len(b); j++ {
		if onlyB != nil {
			onlyB(b[j])
		}
		changed = true
	}
	return changed
}

// Pair is a matched element from each side.
type Pair[A, B any] struct {
	A A
	B B
}

// Partition is the full classification produced by Split.
type Partition[A, B any] struct {
	// OnlyA holds elements of A without a match in B.
	OnlyA []A
	// OnlyB holds elements of B without a match in A.
	OnlyB []B
	// Matched holds every matched pair, changed or not.
	Matched []Pair[A, B]
	// Changed holds the matched pairs for which differ returned true.
	Changed []Pair[A, B]
}

// Split runs Diff and collects the result into a Partition.
// A nil differ treats every matched pair as unchanged.
func Split[A, B any, K cmp.Ordered](a []A, b []B, keyA func(A) K, keyB func(B) K, differ func(A, B) bool) Partition[A, B] {
	var p Partition[A, B]
	Diff(a, b, keyA, keyB,
		func(x A, y B) bool {
			p.Matched = append(p.Matched, Pair[A, B]{A: x, B: y})
			if differ != nil && differ(x, y) {
				p.Changed = append(p.Changed, Pair[A, B]{A: x, B: y})
				return true
			}
			return false
		},
		func(x A) { p.OnlyA = append(p.OnlyA, x) },
		func(y B) { p.OnlyB = append(p.OnlyB, y) },
	)
	return p
}

// IsSorted reports whether items are strictly ascending by key.
func IsSorted[T any, K cmp.Ordered](items []T, key func(T) K) bool {
	for i := 1; i < len(items); i++ {
		if cmp.Compare(key(items[i-1]), key(items[i])) >= 0 {
			return false
		}
	}
	return true
}

func checkSorted[T any, K cmp.Ordered](name string, items []T, key func(T) K) {
	for i := 1; i < len(items); i++ {
		if cmp.Compare(key(items[i-1]), key(items[i])) >= 0 {
			Invariant(false, fmt.Sprintf("diff input %s is not strictly ascending at index %d", name, i))
			return
		}
	}
}
