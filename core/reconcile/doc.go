// Package reconcile provides the generic primitives the library sync is built on.
//
// Every entity type (users, assets, albums, album membership, shared users) is
// reconciled the same way: both sides are brought into ascending order by an
// ordering key, duplicates are collapsed, and the two sequences are walked in a
// single linear pass.
//
// # Sorted Diff
//
// Diff classifies every element as "only in A", "only in B" or "in both". Matching
// is decided by the keys alone; a caller supplied predicate decides whether a
// matched pair counts as a change. Results are accumulated by the caller through
// callbacks, Diff itself only reports whether anything changed.
//
//	changed := reconcile.Diff(remote, stored,
//	    func(u models.User) string { return u.ID },
//	    func(u models.User) string { return u.ID },
//	    func(a, b models.User) bool { return !a.SameAs(b) },
//	    func(a models.User) { toUpsert = append(toUpsert, a) },
//	    func(b models.User) { toDelete = append(toDelete, b.ID) },
//	)
//
// Split is a convenience wrapper returning a Partition instead of using callbacks.
//
// # Deduplication
//
// Unique collapses runs of equal keys in an already sorted slice, keeping the
// first element of each run.
//
// # Invariants
//
// Inputs that are not strictly ascending violate the Diff precondition. The
// violation panics in regular builds and is logged as a warning in binaries
// built with the "release" tag.
package reconcile
