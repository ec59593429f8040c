// Package bridge is the message boundary between the privileged context
// that holds the bookmark store and the board UI. Each request gets exactly
// one response, delivered asynchronously through Send or returned by
// Dispatch.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
	"github.com/MrSnakeDoc/bookmarko/internal/validation"
)

// MessageType names a request kind.
type MessageType string

const (
	GetBookmarks   MessageType = "GET_BOOKMARKS"
	CreateBookmark MessageType = "CREATE_BOOKMARK"
	UpdateBookmark MessageType = "UPDATE_BOOKMARK"
	DeleteBookmark MessageType = "DELETE_BOOKMARK"
	MoveBookmark   MessageType = "MOVE_BOOKMARK"
)

// Request is one message from the UI. Fields not used by Type are ignored.
type Request struct {
	Type MessageType `json:"type" validate:"required,oneof=GET_BOOKMARKS CREATE_BOOKMARK UPDATE_BOOKMARK DELETE_BOOKMARK MOVE_BOOKMARK"`

	// UPDATE, DELETE, MOVE
	ID string `json:"id,omitempty"`

	// CREATE, UPDATE. A nil Title leaves the title unchanged on update.
	ParentID string  `json:"parentId,omitempty"`
	Title    *string `json:"title,omitempty"`
	URL      string  `json:"url,omitempty"`

	// MOVE
	NewParentID string `json:"newParentId,omitempty"`
	Index       *int   `json:"index,omitempty" validate:"omitempty,gte=0"`
}

// Response answers a Request. GET_BOOKMARKS fills Bookmarks with the full
// tree (a one-element list holding the root); the other kinds fill Bookmark
// with the affected node, except DELETE which only reports success.
type Response struct {
	Success   bool          `json:"success"`
	Bookmarks []*store.Node `json:"bookmarks,omitempty"`
	Bookmark  *store.Node   `json:"bookmark,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Dispatcher serves requests against a store.
type Dispatcher struct {
	store store.Adapter
	valid *validation.Validator
	log   logger.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(st store.Adapter, v *validation.Validator, log logger.Logger) *Dispatcher {
	if v == nil {
		v = validation.New()
	}
	return &Dispatcher{store: st, valid: v, log: log}
}

// Dispatch validates and executes req. Failures are reported in the
// response, never as a Go error.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	start := time.Now()
	resp, err := d.dispatch(ctx, req)
	if err != nil {
		d.log.Warn("Bridge request failed",
			logger.String("type", string(req.Type)),
			logger.String("id", req.ID),
			logger.Error(err),
		)
		return Response{Success: false, Error: err.Error()}
	}
	d.log.Debug("Bridge request served",
		logger.String("type", string(req.Type)),
		logger.Duration("duration", time.Since(start)),
	)
	resp.Success = true
	return resp
}

// Send dispatches req in its own goroutine and passes the response to
// reply. reply is called exactly once.
func (d *Dispatcher) Send(ctx context.Context, req Request, reply func(Response)) {
	go func() {
		reply(d.Dispatch(ctx, req))
	}()
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) (Response, error) {
	if err := d.valid.Validate(req); err != nil {
		return Response{}, err
	}
	if req.Type != GetBookmarks && req.Type != CreateBookmark && req.ID == "" {
		return Response{}, &validation.Error{
			Message: "validation failed",
			Fields:  map[string]string{"id": "cannot be empty"},
		}
	}

	switch req.Type {
	case GetBookmarks:
		tree, err := d.store.GetTree(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("failed to read bookmark tree: %w", err)
		}
		return Response{Bookmarks: []*store.Node{tree}}, nil

	case CreateBookmark:
		details := store.CreateDetails{ParentID: req.ParentID, URL: req.URL}
		if req.Title != nil {
			details.Title = *req.Title
		}
		node, err := d.store.Create(ctx, details)
		if err != nil {
			return Response{}, fmt.Errorf("failed to create bookmark: %w", err)
		}
		return Response{Bookmark: node}, nil

	case UpdateBookmark:
		changes := store.Changes{Title: req.Title}
		if req.URL != "" {
			changes.URL = &req.URL
		}
		node, err := d.store.Update(ctx, req.ID, changes)
		if err != nil {
			return Response{}, fmt.Errorf("failed to update bookmark %s: %w", req.ID, err)
		}
		return Response{Bookmark: node}, nil

	case DeleteBookmark:
		if err := d.store.Remove(ctx, req.ID); err != nil {
			return Response{}, fmt.Errorf("failed to delete bookmark %s: %w", req.ID, err)
		}
		return Response{}, nil

	case MoveBookmark:
		node, err := d.store.Move(ctx, req.ID, store.Destination{
			ParentID: req.NewParentID,
			Index:    req.Index,
		})
		if err != nil {
			return Response{}, fmt.Errorf("failed to move bookmark %s: %w", req.ID, err)
		}
		return Response{Bookmark: node}, nil
	}

	return Response{}, fmt.Errorf("unhandled message type %q", req.Type)
}
