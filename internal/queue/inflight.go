package queue

import "sync"

// inflight tracks identities that have a queued or running job, so duplicate
// concurrent requests share one sink instead of queueing twice.
type inflight struct {
	mu sync.Mutex
	m  map[string]*Handle
}

func newInflight() *inflight {
	return &inflight{m: make(map[string]*Handle)}
}

// lookupOrRegister returns the existing handle for identity, or registers h
// and reports that it was newly registered. The check and the insert are one
// critical section, so two racing requests can never both register.
func (t *inflight) lookupOrRegister(identity string, h *Handle) (*Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.m[identity]; ok {
		return existing, false
	}
	t.m[identity] = h
	return h, true
}

func (t *inflight) lookup(identity string) (*Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.m[identity]
	return h, ok
}

func (t *inflight) clear(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, identity)
}

func (t *inflight) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
