package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Exclusive(t *testing.T) {
	g := New()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Run(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.False(t, g.Busy())
	assert.Zero(t, g.Waiting())
}

func TestGate_FIFO(t *testing.T) {
	g := New()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = g.Run(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				order = append(order, n)
				mu.Unlock()
				return nil
			})
		}(i)
		// Wait for the goroutine to queue before starting the next one.
		require.Eventually(t, func() bool { return g.Waiting() == i+1 }, time.Second, time.Millisecond)
	}

	assert.True(t, g.Busy())
	close(release)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestGate_PropagatesError(t *testing.T) {
	g := New()
	err := g.Run(context.Background(), func(ctx context.Context) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGate_CancelledWhileWaiting(t *testing.T) {
	g := New()
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	err := g.Run(ctx, func(ctx context.Context) error {
		ran = true
		return nil
	})
	close(release)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}
