package utils

import "time"

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Coalesce returns a if it is set, otherwise b.
func Coalesce[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}

// PtrEqual compares two optional values. Two nils are equal; nil never equals a value.
func PtrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TimePtrEqual compares two optional instants with time.Time.Equal semantics.
func TimePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
