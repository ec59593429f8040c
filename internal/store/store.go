// Package store defines the capability set the board needs from the
// host-managed bookmark store, and the change events it emits.
package store

import (
	"context"
	"errors"
)

// Well-known node ids (Chrome layout).
const (
	RootID         = "0"
	BookmarkBarID  = "1"
	OtherBookmarks = "2"
)

var (
	// ErrNotFound is returned when an id does not exist in the store.
	ErrNotFound = errors.New("node not found")
	// ErrNotEmpty is returned by Remove on a folder that still has children.
	ErrNotEmpty = errors.New("folder is not empty")
	// ErrInvalid is returned for structurally invalid operations
	// (moving a node under itself, modifying a root, unknown parent).
	ErrInvalid = errors.New("invalid operation")
)

// Node is a folder (URL empty) or a link.
type Node struct {
	ID       string  `json:"id"`
	ParentID string  `json:"parentId,omitempty"`
	Index    int     `json:"index"`
	Title    string  `json:"title"`
	URL      string  `json:"url,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// IsFolder reports whether n is a folder.
func (n *Node) IsFolder() bool { return n.URL == "" }

// Find returns the node with the given id within the subtree rooted at n.
func (n *Node) Find(id string) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// CreateDetails describes a node to create. Empty URL creates a folder.
// Nil Index appends.
type CreateDetails struct {
	ParentID string `json:"parentId"`
	Index    *int   `json:"index,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Changes are the mutable fields of a node. Nil fields are left untouched.
type Changes struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

// Destination of a move. Empty ParentID keeps the current parent,
// nil Index appends.
type Destination struct {
	ParentID string `json:"parentId,omitempty"`
	Index    *int   `json:"index,omitempty"`
}

// At returns a pointer to i, for CreateDetails.Index and Destination.Index.
func At(i int) *int { return &i }

// Position resolves an optional index against a list of length n:
// nil or out of range appends.
func Position(index *int, n int) int {
	if index == nil || *index < 0 || *index > n {
		return n
	}
	return *index
}

// Adapter is the store capability set. Every operation may fail; failures
// are returned as errors and never panic across the boundary.
type Adapter interface {
	// GetTree returns the full hierarchy rooted at RootID.
	GetTree(ctx context.Context) (*Node, error)
	// GetSubTree returns the hierarchy rooted at id.
	GetSubTree(ctx context.Context, id string) (*Node, error)
	// Get returns a single node without children.
	Get(ctx context.Context, id string) (*Node, error)
	Create(ctx context.Context, details CreateDetails) (*Node, error)
	Update(ctx context.Context, id string, changes Changes) (*Node, error)
	// Remove deletes a link or an empty folder.
	Remove(ctx context.Context, id string) error
	// RemoveTree deletes a folder and everything under it.
	RemoveTree(ctx context.Context, id string) error
	Move(ctx context.Context, id string, dest Destination) (*Node, error)
	// Subscribe returns the change stream. The channel is closed when ctx
	// is done.
	Subscribe(ctx context.Context) (<-chan Event, error)
}
