package history

import "sync"

// jobLocks serialises read-modify-write sequences on one job id.
type jobLocks struct {
	mu    sync.Mutex
	locks map[int]*jobLock
}

type jobLock struct {
	mu   sync.Mutex
	refs int
}

// locks is shared by Applier, Transition and Track so that every
// status change of a job in this process goes through the same lock.
var locks = &jobLocks{locks: make(map[int]*jobLock)}

// lock blocks until jobID is free and returns the matching unlock.
func (l *jobLocks) lock(jobID int) func() {
	l.mu.Lock()
	jl, ok := l.locks[jobID]
	if !ok {
		jl = &jobLock{}
		l.locks[jobID] = jl
	}
	jl.refs++
	l.mu.Unlock()

	jl.mu.Lock()

	return func() {
		jl.mu.Unlock()

		l.mu.Lock()
		jl.refs--
		if jl.refs == 0 {
			delete(l.locks, jobID)
		}
		l.mu.Unlock()
	}
}
