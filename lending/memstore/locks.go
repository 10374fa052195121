package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// lockTable hands out one exclusive lock per key. A lock is a channel with capacity 1;
// holding the lock means having sent into it. A key's slot exists only while a transaction
// holds or waits for it, so the table stays as small as the set of keys in use.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch chan struct{}

	// refs counts holders and waiters; guarded by lockTable.mu.
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]*lockSlot)}
}

// retain returns the slot for key and registers the caller as a holder or waiter.
func (lt *lockTable) retain(key string) *lockSlot {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	slot, ok := lt.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		lt.slots[key] = slot
	}

	slot.refs++

	return slot
}

// forget undoes retain and drops the slot once nobody holds or waits for it.
func (lt *lockTable) forget(key string, slot *lockSlot) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(lt.slots, key)
	}
}

// acquire blocks until key is free, ctx is done or timeout elapses.
func (lt *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	slot := lt.retain(key)

	select {
	case slot.ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		lt.forget(key, slot)
		return ctx.Err()
	case <-timer.C:
		lt.forget(key, slot)
		return lending.ErrLockTimeout
	}
}

// release frees key. It must only be called by the holder.
func (lt *lockTable) release(key string) {
	lt.mu.Lock()
	slot := lt.slots[key]
	lt.mu.Unlock()

	<-slot.ch
	lt.forget(key, slot)
}

// size returns the number of keys currently held or waited for.
func (lt *lockTable) size() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	return len(lt.slots)
}
