package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate is a FIFO mutual exclusion boundary.
//
// It is backed by a weighted semaphore of size one, which grants waiters in
// the order they called Acquire.
type Gate struct {
	sem     *semaphore.Weighted
	waiting atomic.Int64
	running atomic.Bool
}

// New returns an open gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Run waits for the gate, runs fn exclusively and releases the gate.
// The only error returned without running fn is ctx's error while waiting.
func (g *Gate) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	g.waiting.Add(1)
	err := g.sem.Acquire(ctx, 1)
	g.waiting.Add(-1)
	if err != nil {
		return err
	}
	g.running.Store(true)
	defer func() {
		g.running.Store(false)
		g.sem.Release(1)
	}()
	return fn(ctx)
}

// Waiting returns the number of callers queued behind the current unit of work.
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}

// Busy reports whether a unit of work currently holds the gate.
func (g *Gate) Busy() bool {
	return g.running.Load()
}
