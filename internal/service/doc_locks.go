package service

import "sync"

// ExportedDocLocks is an exported alias so _test packages can test the locks.
type ExportedDocLocks = docLocks

// docLocks sequences writers per document. Every read-modify-write of a
// document body happens under its lock, so two operations on the same
// document never interleave and a later one always sees the earlier one's
// result. Different documents do not block each other.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until id is free and returns the matching unlock function.
func (l *docLocks) Lock(id string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*docLock)
	}
	dl, ok := l.locks[id]
	if !ok {
		dl = &docLock{}
		l.locks[id] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()
		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of documents currently locked or waited on.
func (l *docLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
