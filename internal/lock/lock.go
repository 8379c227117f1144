package lock

import (
	"context"
	"sync"
)

// Locker serializes work on a shared identity, e.g. all callbacks for one
// payment attempt. Acquire blocks until the key is held or ctx ends; the
// returned release function must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. It backs single-instance deployments
// and tests; clustered deployments use the redis implementation.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		m.entries[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return func() { m.release(key, entry) }, nil
	case <-ctx.Done():
		m.unref(key, entry)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, entry *keyedEntry) {
	<-entry.ch
	m.unref(key, entry)
}

func (m *KeyedMutex) unref(key string, entry *keyedEntry) {
	m.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
