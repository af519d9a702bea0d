// Package coordinator grants exclusive mutation access to logical resource
// keys (account:<id>, invoice:<id>, checkseq:<bank_account_id>, ...). Engines
// acquire every key they will mutate before reading the values their decision
// is based on; reads bypass the coordinator entirely.
package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
)

// ReleaseFunc releases all locks acquired by a successful Acquire call.
type ReleaseFunc func()

// Coordinator serializes concurrent mutations per resource key.
//
// Acquire takes all keys in one call. Keys are deduplicated and acquired in
// ascending sorted order so that two operations touching overlapping key sets
// can never deadlock. A bounded wait applies per key; on timeout or context
// cancellation every lock already held is released and ErrResourceBusy is
// returned.
type Coordinator interface {
	Acquire(ctx context.Context, keys ...string) (ReleaseFunc, error)
}

// LockCoordinator is the in-process Coordinator backend: one channel-based
// mutex per key, created lazily and guarded by a map mutex.
type LockCoordinator struct {
	mu      sync.Mutex
	locks   map[string]chan struct{}
	timeout time.Duration
}

var _ Coordinator = (*LockCoordinator)(nil)

// NewLockCoordinator creates an in-process coordinator with the given
// per-key wait bound. A non-positive timeout defaults to five seconds.
func NewLockCoordinator(timeout time.Duration) *LockCoordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LockCoordinator{
		locks:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

func (c *LockCoordinator) lockChan(key string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		c.locks[key] = ch
	}
	return ch
}

// Acquire implements Coordinator.
func (c *LockCoordinator) Acquire(ctx context.Context, keys ...string) (ReleaseFunc, error) {
	ordered := sortedUnique(keys)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	held := make([]chan struct{}, 0, len(ordered))
	releaseHeld := func() {
		// Release in reverse acquisition order.
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range ordered {
		ch := c.lockChan(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-timer.C:
			releaseHeld()
			return nil, apperrors.ErrResourceBusy
		case <-ctx.Done():
			releaseHeld()
			return nil, apperrors.ErrResourceBusy
		}
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

// sortedUnique returns the keys deduplicated and in ascending order, the
// global acquisition order shared by every operation.
func sortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
