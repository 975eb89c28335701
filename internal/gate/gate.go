// Package gate serialises writers of the shared VM cache.
//
// A Gate is a single exclusive token held by a size-1 buffered channel: a
// goroutine acquires by sending into the channel and releases by receiving
// from it. Unlike sync.Mutex this allows timed and context-aware acquisition.
// The gate is not re-entrant; a holder that acquires again blocks or times
// out like any other caller.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a timed acquisition gives up.
var ErrTimeout = errors.New("gate: acquire timed out")

// Gate is the refresh coordinator's mutual exclusion primitive.
type Gate struct {
	ch chan struct{}
}

// New returns an unheld gate.
func New() *Gate {
	return &Gate{ch: make(chan struct{}, 1)}
}

// TryAcquire waits up to timeout for the gate. It returns false when the
// gate is still held after timeout. A zero timeout only succeeds if the
// gate is free right now.
func (g *Gate) TryAcquire(timeout time.Duration) bool {
	select {
	case g.ch <- struct{}{}:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case g.ch <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Acquire blocks until the gate is held or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquire gate: %w", ctx.Err())
	}
}

// AcquireBlocking waits for the gate with no deadline.
func (g *Gate) AcquireBlocking() {
	g.ch <- struct{}{}
}

// Release frees the gate. Releasing an unheld gate is a no-op.
func (g *Gate) Release() {
	select {
	case <-g.ch:
	default:
	}
}

// Held reports whether someone holds the gate at this instant.
func (g *Gate) Held() bool {
	return len(g.ch) == 1
}

// WithTimeout runs fn while holding the gate. It returns (false, nil)
// without running fn when the gate could not be taken within timeout. The
// gate is released however fn exits, panics included.
func (g *Gate) WithTimeout(timeout time.Duration, fn func() error) (bool, error) {
	if !g.TryAcquire(timeout) {
		return false, nil
	}
	defer g.Release()
	return true, fn()
}

// With runs fn while holding the gate, waiting as long as ctx allows.
func (g *Gate) With(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}
