// Package utils provides helpers for optional (pointer) fields: construction,
// null-safe comparison and coalescing.
package utils
