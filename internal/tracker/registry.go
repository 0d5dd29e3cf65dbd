package tracker

import "sync"

// Registry holds the live trackers of this process, keyed by session id.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
}

func NewRegistry() *Registry {
	return &Registry{trackers: make(map[string]*Tracker)}
}

func (r *Registry) Get(sessionID string) (*Tracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trackers[sessionID]
	return t, ok
}

// GetOrCreate returns the registered tracker or stores the one built by
// create. create runs under the write lock and is called at most once per
// missing session.
func (r *Registry) GetOrCreate(sessionID string, create func() *Tracker) *Tracker {
	if t, ok := r.Get(sessionID); ok {
		return t
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[sessionID]; ok {
		return t
	}
	t := create()
	r.trackers[sessionID] = t
	return t
}

func (r *Registry) Put(t *Tracker) {
	r.mu.Lock()
	r.trackers[t.SessionID()] = t
	r.mu.Unlock()
}

// Remove drops the tracker of sessionID and returns it, if any.
func (r *Registry) Remove(sessionID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[sessionID]
	delete(r.trackers, sessionID)
	return t, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trackers)
}

// FlushAll flushes every live tracker. Used on shutdown.
func (r *Registry) FlushAll() {
	r.mu.RLock()
	live := make([]*Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		live = append(live, t)
	}
	r.mu.RUnlock()

	for _, t := range live {
		t.Flush()
	}
}
