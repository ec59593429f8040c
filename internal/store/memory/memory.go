// Package memory is an in-process bookmark store with the Chrome layout
// (root "0", bookmark bar "1", other bookmarks "2").
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/MrSnakeDoc/bookmarko/internal/store"
)

type entry struct {
	id       string
	parentID string
	title    string
	url      string
	children []string
}

func (e *entry) isFolder() bool { return e.url == "" }

// Store implements store.Adapter in memory.
type Store struct {
	mu     sync.RWMutex
	nodes  map[string]*entry
	nextID int
	broker *store.Broker

	// pubMu keeps events in mutation order.
	pubMu sync.Mutex
}

// New creates an empty store with the permanent root folders.
func New() *Store {
	s := &Store{
		nodes:  make(map[string]*entry),
		nextID: 3,
		broker: store.NewBroker(store.DefaultEventBuffer),
	}
	s.nodes[store.RootID] = &entry{id: store.RootID, children: []string{store.BookmarkBarID, store.OtherBookmarks}}
	s.nodes[store.BookmarkBarID] = &entry{id: store.BookmarkBarID, parentID: store.RootID, title: "Bookmarks bar"}
	s.nodes[store.OtherBookmarks] = &entry{id: store.OtherBookmarks, parentID: store.RootID, title: "Other bookmarks"}
	return s
}

var _ store.Adapter = (*Store)(nil)

func isPermanent(id string) bool {
	return id == store.RootID || id == store.BookmarkBarID || id == store.OtherBookmarks
}

// GetTree returns a copy of the whole hierarchy.
func (s *Store) GetTree(ctx context.Context) (*store.Node, error) {
	return s.GetSubTree(ctx, store.RootID)
}

// GetSubTree returns a copy of the hierarchy rooted at id.
func (s *Store) GetSubTree(_ context.Context, id string) (*store.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("get subtree %s: %w", id, store.ErrNotFound)
	}
	return s.buildLocked(id, true), nil
}

// Get returns a copy of a single node.
func (s *Store) Get(_ context.Context, id string) (*store.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
	}
	return s.buildLocked(id, false), nil
}

// Create adds a folder or link under details.ParentID.
func (s *Store) Create(_ context.Context, details store.CreateDetails) (*store.Node, error) {
	s.mu.Lock()
	parent, ok := s.nodes[details.ParentID]
	if !ok || !parent.isFolder() {
		s.mu.Unlock()
		return nil, fmt.Errorf("create under %q: %w", details.ParentID, store.ErrInvalid)
	}
	if details.ParentID == store.RootID {
		s.mu.Unlock()
		return nil, fmt.Errorf("create under root: %w", store.ErrInvalid)
	}

	id := strconv.Itoa(s.nextID)
	s.nextID++
	s.nodes[id] = &entry{id: id, parentID: parent.id, title: details.Title, url: details.URL}
	parent.children = insertAt(parent.children, id, details.Index)
	node := s.buildLocked(id, false)
	s.unlockAndPublish(store.Created(node))
	return node, nil
}

// Update changes title and/or url. Folders cannot get a url.
func (s *Store) Update(_ context.Context, id string, changes store.Changes) (*store.Node, error) {
	s.mu.Lock()
	e, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("update %s: %w", id, store.ErrNotFound)
	}
	if isPermanent(id) {
		s.mu.Unlock()
		return nil, fmt.Errorf("update permanent node %s: %w", id, store.ErrInvalid)
	}
	if changes.URL != nil && e.isFolder() {
		s.mu.Unlock()
		return nil, fmt.Errorf("set url on folder %s: %w", id, store.ErrInvalid)
	}
	if changes.URL != nil && *changes.URL == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("clear url of %s: %w", id, store.ErrInvalid)
	}

	if changes.Title != nil {
		e.title = *changes.Title
	}
	if changes.URL != nil {
		e.url = *changes.URL
	}
	node := s.buildLocked(id, false)
	s.unlockAndPublish(store.Changed(node))
	return node, nil
}

// Remove deletes a link or an empty folder.
func (s *Store) Remove(_ context.Context, id string) error {
	return s.remove(id, false)
}

// RemoveTree deletes a node and its whole subtree.
func (s *Store) RemoveTree(_ context.Context, id string) error {
	return s.remove(id, true)
}

func (s *Store) remove(id string, recursive bool) error {
	s.mu.Lock()
	e, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}
	if isPermanent(id) {
		s.mu.Unlock()
		return fmt.Errorf("remove permanent node %s: %w", id, store.ErrInvalid)
	}
	if !recursive && len(e.children) > 0 {
		s.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, store.ErrNotEmpty)
	}

	node := s.buildLocked(id, true)
	parent := s.nodes[e.parentID]
	index := indexOf(parent.children, id)
	parent.children = removeID(parent.children, id)
	s.deleteLocked(id)
	s.unlockAndPublish(store.Removed(node, e.parentID, index))
	return nil
}

// Move re-parents and/or reorders a node.
func (s *Store) Move(_ context.Context, id string, dest store.Destination) (*store.Node, error) {
	s.mu.Lock()
	e, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("move %s: %w", id, store.ErrNotFound)
	}
	if isPermanent(id) {
		s.mu.Unlock()
		return nil, fmt.Errorf("move permanent node %s: %w", id, store.ErrInvalid)
	}

	parentID := dest.ParentID
	if parentID == "" {
		parentID = e.parentID
	}
	newParent, ok := s.nodes[parentID]
	if !ok || !newParent.isFolder() || parentID == store.RootID {
		s.mu.Unlock()
		return nil, fmt.Errorf("move %s under %q: %w", id, parentID, store.ErrInvalid)
	}
	if s.isAncestorLocked(id, parentID) {
		s.mu.Unlock()
		return nil, fmt.Errorf("move %s under its own descendant %s: %w", id, parentID, store.ErrInvalid)
	}

	oldParent := s.nodes[e.parentID]
	oldIndex := indexOf(oldParent.children, id)
	oldParent.children = removeID(oldParent.children, id)
	newParent.children = insertAt(newParent.children, id, dest.Index)
	e.parentID = parentID
	node := s.buildLocked(id, false)
	s.unlockAndPublish(store.Moved(id, oldParent.id, oldIndex, parentID, node.Index))
	return node, nil
}

// Subscribe returns the change stream until ctx is done.
func (s *Store) Subscribe(ctx context.Context) (<-chan store.Event, error) {
	return s.broker.Subscribe(ctx), nil
}

// unlockAndPublish releases s.mu and publishes ev before any later
// mutation can publish its own event.
func (s *Store) unlockAndPublish(ev store.Event) {
	s.pubMu.Lock()
	s.mu.Unlock()
	s.broker.Publish(ev)
	s.pubMu.Unlock()
}

func (s *Store) buildLocked(id string, withChildren bool) *store.Node {
	e := s.nodes[id]
	n := &store.Node{
		ID:       e.id,
		ParentID: e.parentID,
		Title:    e.title,
		URL:      e.url,
	}
	if parent, ok := s.nodes[e.parentID]; ok {
		n.Index = indexOf(parent.children, id)
	}
	if withChildren && e.isFolder() {
		n.Children = make([]*store.Node, 0, len(e.children))
		for _, cid := range e.children {
			n.Children = append(n.Children, s.buildLocked(cid, true))
		}
	}
	return n
}

func (s *Store) deleteLocked(id string) {
	e := s.nodes[id]
	for _, cid := range e.children {
		s.deleteLocked(cid)
	}
	delete(s.nodes, id)
}

// isAncestorLocked reports whether ancestor is target or one of its parents.
func (s *Store) isAncestorLocked(ancestor, target string) bool {
	for cur := target; cur != ""; {
		if cur == ancestor {
			return true
		}
		e, ok := s.nodes[cur]
		if !ok {
			return false
		}
		cur = e.parentID
	}
	return false
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertAt(ids []string, id string, at *int) []string {
	index := store.Position(at, len(ids))
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	return append(out, ids[index:]...)
}
