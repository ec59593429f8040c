// Package search runs the board filter behind a debounced query input.
package search

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarko/internal/board"
	"github.com/MrSnakeDoc/bookmarko/internal/debounce"
)

// Source provides the current board model.
type Source interface {
	Snapshot() *board.Model
}

// Session holds one client's query. Keystrokes go through Type; the filter
// runs once the input has been quiet for the debounce delay and the result
// is handed to the callback.
type Session struct {
	src      Source
	deb      *debounce.Debouncer
	onResult func(board.View)

	mu    sync.Mutex
	query string
}

// NewSession creates a session. A non-positive delay uses the default 300ms.
func NewSession(src Source, delay time.Duration, onResult func(board.View)) *Session {
	return &Session{
		src:      src,
		deb:      debounce.New(delay),
		onResult: onResult,
	}
}

// Type records the new input and restarts the debounce timer.
func (s *Session) Type(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	s.deb.Trigger(s.run)
}

// Query returns the last typed input.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Refresh re-runs the current query immediately, e.g. after the board
// changed, and cancels any pending debounced run.
func (s *Session) Refresh() {
	s.deb.Cancel()
	s.run()
}

// Close stops the session; no callback runs afterwards.
func (s *Session) Close() {
	s.deb.Stop()
}

// View filters the current model with the current query.
func (s *Session) View() board.View {
	return board.Filter(s.src.Snapshot(), s.Query())
}

func (s *Session) run() {
	if s.onResult != nil {
		s.onResult(s.View())
	}
}
