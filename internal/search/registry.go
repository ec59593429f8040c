package search

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarko/internal/board"
)

// Registry tracks the search sessions of connected clients by id.
type Registry struct {
	delay time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions debounce input by delay.
// A non-positive delay uses the default 300ms.
func NewRegistry(delay time.Duration) *Registry {
	return &Registry{delay: delay, sessions: make(map[string]*Session)}
}

// Open starts a session for id with an initial query, replacing any
// session already registered under that id.
func (r *Registry) Open(id, query string, src Source, onResult func(board.View)) *Session {
	s := NewSession(src, r.delay, onResult)
	s.query = query

	r.mu.Lock()
	prev := r.sessions[id]
	r.sessions[id] = s
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return s
}

// Type forwards input to the session of id. It reports false when no
// such session is open.
func (r *Registry) Type(id, query string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.Type(query)
	return true
}

// Close stops and forgets the session of id, if it is still s.
func (r *Registry) Close(id string, s *Session) {
	r.mu.Lock()
	if r.sessions[id] == s {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	s.Close()
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
