package editor

import (
	"sync"
	"time"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
)

// Registry tracks the open editor sessions by id.
type Registry struct {
	store     *content.Store
	publisher Publisher

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry whose sessions edit store.
func NewRegistry(store *content.Store, publisher Publisher) *Registry {
	return &Registry{
		store:     store,
		publisher: publisher,
		sessions:  make(map[string]*Session),
	}
}

// Open starts a fresh session and registers it.
func (r *Registry) Open() *Session {
	s := NewSession(r.store, r.publisher)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the open session with id. Closed sessions are not returned.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || s.Closed() {
		return nil, false
	}
	return s, true
}

// Remove forgets the session with id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap drops closed sessions and sessions idle for longer than idle. It
// returns how many were dropped. Unpublished dirty flags of a reaped session
// are lost; its edits stay in the store. A session busy applying a command is
// never idle and is left alone, so Reap does not wait on it.
func (r *Registry) Reap(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	candidates := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		candidates[id] = s
	}
	r.mu.Unlock()

	var stale []string
	for id, s := range candidates {
		if s.expired(cutoff) {
			stale = append(stale, id)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range stale {
		if r.sessions[id] == candidates[id] {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
