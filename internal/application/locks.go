package application

import (
	"context"
	"sync"

	"github.com/stockpilot/ledger-service/internal/domain"
)

// keyedLock serializes mutations per product while letting different
// products proceed in parallel. Acquisition is bounded by the caller's
// context; a timeout surfaces as ErrRecordBusy instead of blocking the
// request indefinitely.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*lockEntry)}
}

// Acquire takes the lock for key, waiting until the context expires.
// On success the returned release function must be called exactly once.
func (l *keyedLock) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			l.release(key, entry)
		}, nil
	case <-ctx.Done():
		l.release(key, entry)
		return nil, domain.ErrRecordBusy
	}
}

func (l *keyedLock) release(key string, entry *lockEntry) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
