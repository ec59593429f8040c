// Package board holds the board model derived from the bookmark store and
// the pure functions that build and patch it.
package board

import (
	"fmt"

	"github.com/MrSnakeDoc/bookmarko/internal/domain"
)

// Model is the UI-facing representation of the watched subtree.
//
// Invariant: every id listed in a column is a key of Bookmarks, and every
// key of Bookmarks is listed exactly once across all columns.
type Model struct {
	Columns   []*domain.Column            `json:"columns"`
	Bookmarks map[string]*domain.Bookmark `json:"bookmarks"`
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		Columns:   []*domain.Column{},
		Bookmarks: make(map[string]*domain.Bookmark),
	}
}

// Clone returns a deep copy.
func (m *Model) Clone() *Model {
	out := &Model{
		Columns:   make([]*domain.Column, len(m.Columns)),
		Bookmarks: make(map[string]*domain.Bookmark, len(m.Bookmarks)),
	}
	for i, c := range m.Columns {
		out.Columns[i] = c.Clone()
	}
	for id, b := range m.Bookmarks {
		cp := *b
		out.Bookmarks[id] = &cp
	}
	return out
}

// Column returns the column with the given id.
func (m *Model) Column(id string) (*domain.Column, int) {
	for i, c := range m.Columns {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

// ColumnOf returns the column listing bookmark id.
func (m *Model) ColumnOf(id string) *domain.Column {
	for _, c := range m.Columns {
		if c.IndexOf(id) >= 0 {
			return c
		}
	}
	return nil
}

// Check verifies the aggregate invariant and returns the first violation.
func (m *Model) Check() error {
	seen := make(map[string]string, len(m.Bookmarks))
	columns := make(map[string]bool, len(m.Columns))
	for _, c := range m.Columns {
		if columns[c.ID] {
			return fmt.Errorf("column %s listed twice", c.ID)
		}
		columns[c.ID] = true
		for _, id := range c.BookmarkIDs {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("bookmark %s listed in columns %s and %s", id, prev, c.ID)
			}
			seen[id] = c.ID
			if _, ok := m.Bookmarks[id]; !ok {
				return fmt.Errorf("column %s references unknown bookmark %s", c.ID, id)
			}
		}
	}
	for id := range m.Bookmarks {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("bookmark %s belongs to no column", id)
		}
	}
	return nil
}

// Orphans returns the bookmark ids that belong to no column.
func (m *Model) Orphans() []string {
	listed := make(map[string]bool, len(m.Bookmarks))
	for _, c := range m.Columns {
		for _, id := range c.BookmarkIDs {
			listed[id] = true
		}
	}
	var out []string
	for id := range m.Bookmarks {
		if !listed[id] {
			out = append(out, id)
		}
	}
	return out
}

// Shape is the structure of a model without titles or colors:
// column ids in order, each with its bookmark ids in order.
type Shape [][]string

// Shape returns the id layout used to compare a model with the store.
func (m *Model) Shape() Shape {
	out := make(Shape, len(m.Columns))
	for i, c := range m.Columns {
		out[i] = append([]string{c.ID}, c.BookmarkIDs...)
	}
	return out
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if len(s[i]) != len(o[i]) {
			return false
		}
		for j := range s[i] {
			if s[i][j] != o[i][j] {
				return false
			}
		}
	}
	return true
}
