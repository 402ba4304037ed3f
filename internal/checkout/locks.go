package checkout

import "sync"

// userLocks hands out one mutex per user and forgets it when unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[string]*userLock{}}
}

func (l *userLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.locks[id]
	if !ok {
		ul = &userLock{}
		l.locks[id] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
