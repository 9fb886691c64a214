// Package store persists the local library snapshot.
//
// Reads are plain lookups. All writes of one reconciliation step are grouped
// into a Changeset and applied by Commit inside a single transaction.
package store
