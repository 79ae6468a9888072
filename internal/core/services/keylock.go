package services

import (
	"context"
	"sync"
)

// KeyLocks serialises work per key, such as a chat session or a document
// ID. Entries are dropped once no goroutine holds or waits on them. The
// zero value is not usable; call NewKeyLocks.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock is held while its one-slot channel is full.
type keyLock struct {
	held chan struct{}
	refs int
}

// NewKeyLocks creates an empty lock set.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[string]*keyLock)}
}

// lock waits until key is free or ctx is done. On success it returns the
// unlock function.
func (l *KeyLocks) lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{held: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.held <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}

	return func() {
		<-entry.held
		l.release(key, entry)
	}, nil
}

func (l *KeyLocks) release(key string, entry *keyLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

func (l *KeyLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
