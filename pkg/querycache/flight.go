package querycache

import (
	"context"
	"fmt"
	"sync/atomic"
)

// flight is a single running loader invocation shared by every reader of a key.
type flight struct {
	value any
	err   error
	gate  chan struct{}
	done  chan struct{}

	waiters atomic.Int32
}

// newFlight spawns the loader goroutine. The loader does not run until open
// is called, so the caller can publish the pending state first.
func newFlight(ctx context.Context, loader Loader, onSettle func(*flight)) *flight {
	f := &flight{
		gate: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		<-f.gate
		defer close(f.done)
		defer onSettle(f)
		defer func() {
			if r := recover(); r != nil {
				f.value = nil
				f.err = fmt.Errorf("%w: %v", ErrLoaderPanic, r)
			}
		}()
		f.value, f.err = loader(ctx)
	}()

	return f
}

func (f *flight) open() { close(f.gate) }

// wait blocks until the loader settles or ctx is done. A canceled waiter does
// not cancel the loader; other readers still receive its result.
func (f *flight) wait(ctx context.Context) (any, error) {
	if err := f.settled(ctx); err != nil {
		return nil, err
	}
	return f.value, f.err
}

// settled blocks until the loader has settled into the cache or ctx is done.
func (f *flight) settled(ctx context.Context) error {
	f.waiters.Add(1)
	defer f.waiters.Add(-1)

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func waiters(f *flight) int {
	if f == nil {
		return 0
	}
	return int(f.waiters.Load())
}
