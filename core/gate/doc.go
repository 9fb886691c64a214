// Package gate provides the serialization gate guarding the local library snapshot.
//
// At most one unit of work runs at a time; callers queue in FIFO order and wait
// until the current unit completes. The gate is owned by the service instance
// that uses it, there is no package level state.
//
// # Usage
//
//	g := gate.New()
//	err := g.Run(ctx, func(ctx context.Context) error {
//	    // exclusive access to the snapshot
//	    return nil
//	})
package gate
