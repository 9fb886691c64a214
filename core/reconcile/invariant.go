package reconcile

import "go.uber.org/zap"

// Invariant checks a programmer invariant. A violation panics unless the
// binary was built with the "release" tag, in which case it is logged.
func Invariant(ok bool, msg string) {
	if ok {
		return
	}
	if strictInvariants {
		panic("reconcile: " + msg)
	}
	zap.L().Warn("Invariant violated", zap.String("detail", msg))
}
