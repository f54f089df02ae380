package di

import (
	"context"
	"sync"

	"github.com/xraph/beans/internal/errors"
)

// barrier serializes shutdown against lookups: lookups share it, shutdown
// takes it exclusively. Calls that already hold it, because they run inside
// a construction or a shutdown sweep, pass straight through.
type barrier struct {
	mu     sync.RWMutex
	closed bool
}

func nopRelease() {}

func (b *barrier) enter(ctx context.Context, bean string) (context.Context, func(), error) {
	if holdsBarrier(ctx) {
		return ctx, nopRelease, nil
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ctx, nopRelease, errors.ErrClosed(bean, errors.StageLookup)
	}
	return withBarrier(ctx), b.mu.RUnlock, nil
}

func (b *barrier) close(ctx context.Context) (context.Context, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ctx, nopRelease, errors.ErrShutdownTwice()
	}
	b.closed = true
	return withBarrier(ctx), b.mu.Unlock, nil
}

func (b *barrier) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
