package database

import "sync"

// treeLocks hands out one mutex per tree id. Entries are reference counted
// and dropped once no goroutine holds or waits for them.
type treeLocks struct {
	mu    sync.Mutex
	locks map[string]*treeLock
}

type treeLock struct {
	mu   sync.Mutex
	refs int
}

func newTreeLocks() *treeLocks {
	return &treeLocks{locks: make(map[string]*treeLock)}
}

// lock blocks until the tree's mutex is held and returns the function that
// releases it.
func (l *treeLocks) lock(treeID string) func() {
	l.mu.Lock()
	tl, ok := l.locks[treeID]
	if !ok {
		tl = &treeLock{}
		l.locks[treeID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()

	return func() {
		tl.mu.Unlock()

		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, treeID)
		}
		l.mu.Unlock()
	}
}

// size returns the number of trees with a held or awaited lock.
func (l *treeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
