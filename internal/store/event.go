package store

import "fmt"

// EventKind identifies one of the four change notifications.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventRemoved EventKind = "removed"
	EventChanged EventKind = "changed"
	EventMoved   EventKind = "moved"
)

// Event is one atomic change in the store.
//
// Field usage per kind:
//
//	created: ID, Node (with ParentID)
//	removed: ID, ParentID, Node (the removed node, URL set for links)
//	changed: ID, Title, URL (URL empty for folders)
//	moved:   ID, ParentID, OldParentID, Index, OldIndex
type Event struct {
	Kind        EventKind `json:"kind"`
	ID          string    `json:"id"`
	Node        *Node     `json:"node,omitempty"`
	ParentID    string    `json:"parentId,omitempty"`
	OldParentID string    `json:"oldParentId,omitempty"`
	Index       int       `json:"index"`
	OldIndex    int       `json:"oldIndex"`
	Title       string    `json:"title,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// WasBookmark reports whether a removed node was a link.
func (e Event) WasBookmark() bool {
	return e.Node != nil && e.Node.URL != ""
}

func (e Event) String() string {
	switch e.Kind {
	case EventMoved:
		return fmt.Sprintf("%s(%s %s->%s)", e.Kind, e.ID, e.OldParentID, e.ParentID)
	case EventRemoved:
		return fmt.Sprintf("%s(%s bookmark=%v)", e.Kind, e.ID, e.WasBookmark())
	default:
		return fmt.Sprintf("%s(%s)", e.Kind, e.ID)
	}
}

// Created builds a created event for n.
func Created(n *Node) Event {
	return Event{Kind: EventCreated, ID: n.ID, Node: n, ParentID: n.ParentID}
}

// Removed builds a removed event for n, which was a child of parentID.
func Removed(n *Node, parentID string, index int) Event {
	return Event{Kind: EventRemoved, ID: n.ID, Node: n, ParentID: parentID, Index: index}
}

// Changed builds a changed event from the node's new state.
func Changed(n *Node) Event {
	return Event{Kind: EventChanged, ID: n.ID, Title: n.Title, URL: n.URL}
}

// Moved builds a moved event.
func Moved(id, oldParentID string, oldIndex int, parentID string, index int) Event {
	return Event{
		Kind:        EventMoved,
		ID:          id,
		ParentID:    parentID,
		OldParentID: oldParentID,
		Index:       index,
		OldIndex:    oldIndex,
	}
}
