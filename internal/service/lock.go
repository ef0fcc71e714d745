package service

import "sync"

// RequestLocks serializes all transitions for a single review id. Locks are
// created lazily on first use; Forget reclaims an entry once nothing holds or
// waits on it, so a review id recreated later always resolves to whichever
// mutex late callers are still queued on.
type RequestLocks struct {
	mu    sync.Mutex
	locks map[string]*requestLock
}

type requestLock struct {
	mu     sync.Mutex
	refs   int
	doomed bool
}

func NewRequestLocks() *RequestLocks {
	return &RequestLocks{
		locks: make(map[string]*requestLock),
	}
}

// Lock acquires the mutex for reviewID and returns its release func. The
// caller must invoke the release on every exit path.
func (l *RequestLocks) Lock(reviewID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[reviewID]
	if !ok {
		entry = &requestLock{}
		l.locks[reviewID] = entry
	}
	entry.refs++
	entry.doomed = false
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.doomed && entry.refs == 0 && l.locks[reviewID] == entry {
			delete(l.locks, reviewID)
		}
		l.mu.Unlock()
	}
}

// Forget drops the map entry for reviewID. An entry that still has holders or
// waiters is only marked; the last release drains it from the map.
func (l *RequestLocks) Forget(reviewID string) {
	l.mu.Lock()
	if entry, ok := l.locks[reviewID]; ok {
		if entry.refs == 0 {
			delete(l.locks, reviewID)
		} else {
			entry.doomed = true
		}
	}
	l.mu.Unlock()
}

// Len reports how many review locks are currently tracked.
func (l *RequestLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
