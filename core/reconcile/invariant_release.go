//go:build release

package reconcile

const strictInvariants = false
