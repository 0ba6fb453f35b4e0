package reschedule

import "sync"

// projectLocks serializes reschedule operations per project. Two reschedules
// racing on the same project would interleave their read-then-write phases
// and lose updates; holding the project's lock for the whole call prevents
// that. Different projects proceed in parallel.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the project's lock is held and returns the unlock
// function.
func (p *projectLocks) acquire(projectID string) func() {
	p.mu.Lock()
	l, ok := p.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[projectID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
