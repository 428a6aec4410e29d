package web

import (
	"sync"
)

// progressTracker holds the (completed, total) state of in-flight
// aggregations so the UI can poll a percentage while a cold scan runs.
type progressTracker struct {
	mu   sync.Mutex
	jobs map[string][2]int
}

func newProgressTracker() *progressTracker {
	return &progressTracker{jobs: make(map[string][2]int)}
}

func (t *progressTracker) update(id string, completed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[id] = [2]int{completed, total}
}

func (t *progressTracker) get(id string) (completed, total int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.jobs[id]
	return state[0], state[1], ok
}

func (t *progressTracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}
