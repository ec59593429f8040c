package boardsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/bookmarko/internal/board"
	"github.com/MrSnakeDoc/bookmarko/internal/domain"
	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
	"github.com/MrSnakeDoc/bookmarko/internal/validation"
)

// Defaults for nodes created from the board.
const (
	NewColumnTitle   = "New Column"
	NewBookmarkTitle = "New Bookmark"
	NewBookmarkURL   = "https://example.com"
)

// User actions write to the store and let the resulting change event update
// the model. Drop and recolor are the exceptions: the first is applied
// optimistically, the second never reaches the store. Store failures are
// reported as a notice and returned; nothing is retried or rolled back.

// AddColumn creates an empty folder at the end of the watched root.
func (c *Coordinator) AddColumn(ctx context.Context) (*store.Node, error) {
	node, err := c.store.Create(ctx, store.CreateDetails{ParentID: c.root, Title: NewColumnTitle})
	if err != nil {
		return nil, c.failed("add column", err)
	}
	c.notify(NoticeSuccess, "New column added!")
	return node, nil
}

// RenameColumn sets a column title.
func (c *Coordinator) RenameColumn(ctx context.Context, id, title string) error {
	edit, err := c.valid.Column(title)
	if err != nil {
		c.notify(NoticeError, "Column title cannot be empty")
		return err
	}
	if err := c.requireColumn(id); err != nil {
		return err
	}
	if _, err := c.store.Update(ctx, id, store.Changes{Title: &edit.Title}); err != nil {
		return c.failed("rename column", err)
	}
	c.notify(NoticeSuccess, "Column title updated!")
	return nil
}

// DeleteColumn removes a column folder and everything in it.
func (c *Coordinator) DeleteColumn(ctx context.Context, id string) error {
	if err := c.requireColumn(id); err != nil {
		return err
	}
	if err := c.store.RemoveTree(ctx, id); err != nil {
		return c.failed("delete column", err)
	}
	c.notify(NoticeSuccess, "Column deleted!")
	return nil
}

// AddBookmark creates a placeholder bookmark at the end of a column. The
// user is expected to edit it right away.
func (c *Coordinator) AddBookmark(ctx context.Context, columnID string) (*store.Node, error) {
	if err := c.requireColumn(columnID); err != nil {
		return nil, err
	}
	node, err := c.store.Create(ctx, store.CreateDetails{
		ParentID: columnID,
		Title:    NewBookmarkTitle,
		URL:      NewBookmarkURL,
	})
	if err != nil {
		return nil, c.failed("add bookmark", err)
	}
	c.notify(NoticeSuccess, "New bookmark added! Please edit the details.")
	return node, nil
}

// EditBookmark validates and saves a bookmark title and URL. A URL without
// http or https scheme gets https:// prepended.
func (c *Coordinator) EditBookmark(ctx context.Context, id, title, rawURL string) error {
	edit, err := c.valid.Bookmark(title, rawURL)
	if err != nil {
		c.notify(NoticeError, editNotice(err))
		return err
	}
	if err := c.requireBookmark(id); err != nil {
		return err
	}
	if _, err := c.store.Update(ctx, id, store.Changes{Title: &edit.Title, URL: &edit.URL}); err != nil {
		return c.failed("update bookmark", err)
	}
	c.notify(NoticeSuccess, "Bookmark updated!")
	return nil
}

// CancelEdit discards a bookmark that still holds the placeholder values
// set by AddBookmark. It reports whether the bookmark was deleted.
func (c *Coordinator) CancelEdit(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	b, ok := c.model.Bookmarks[id]
	placeholder := ok && b.Title == NewBookmarkTitle && b.URL == NewBookmarkURL
	c.mu.Unlock()

	if !placeholder {
		return false, nil
	}
	if err := c.store.Remove(ctx, id); err != nil {
		return false, c.failed("discard placeholder", err)
	}
	return true, nil
}

// DeleteBookmark removes a bookmark.
func (c *Coordinator) DeleteBookmark(ctx context.Context, id string) error {
	if err := c.requireBookmark(id); err != nil {
		return err
	}
	if err := c.store.Remove(ctx, id); err != nil {
		return c.failed("delete bookmark", err)
	}
	c.notify(NoticeSuccess, "Bookmark deleted!")
	return nil
}

// RecolorColumn sets a column color. Colors are local to the board.
func (c *Coordinator) RecolorColumn(id string, color domain.Color) error {
	if err := c.requireColumn(id); err != nil {
		return err
	}
	return c.recolor(id, color)
}

// RecolorBookmark sets a bookmark color. Colors are local to the board.
func (c *Coordinator) RecolorBookmark(id string, color domain.Color) error {
	if err := c.requireBookmark(id); err != nil {
		return err
	}
	return c.recolor(id, color)
}

func (c *Coordinator) recolor(id string, color domain.Color) error {
	if !domain.InPalette(color) {
		return &validation.Error{
			Message: "validation failed",
			Fields:  map[string]string{"color": "must be a palette color"},
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !board.Recolor(c.model, id, color) {
		return fmt.Errorf("recolor %s: %w", id, store.ErrNotFound)
	}
	c.publishLocked()
	return nil
}

// Drop applies a drag result to the model right away, then moves the node
// in the store. The store's Moved event for it is recognized and skipped.
func (c *Coordinator) Drop(ctx context.Context, drop board.DropResult) error {
	if err := c.valid.Validate(drop); err != nil {
		return err
	}

	c.mu.Lock()
	next, placement, err := board.ApplyDrop(c.model, drop)
	if err != nil {
		c.mu.Unlock()
		return &validation.Error{Message: err.Error()}
	}
	if placement == nil {
		c.mu.Unlock()
		return nil
	}
	parent := placement.ParentID
	if parent == "" {
		parent = c.root
	}
	c.model = next
	c.pending[placement.ID] = parent
	c.publishLocked()
	c.mu.Unlock()

	err = c.pushPlacement(ctx, parent, placement)
	if err != nil {
		c.mu.Lock()
		delete(c.pending, placement.ID)
		c.mu.Unlock()
		return c.failed("move "+string(drop.Type), err)
	}
	return nil
}

// pushPlacement moves the dropped node next to its displayed neighbours in
// the store's child order of parent.
func (c *Coordinator) pushPlacement(ctx context.Context, parent string, p *board.Placement) error {
	folder, err := c.store.GetSubTree(ctx, parent)
	if err != nil {
		return err
	}
	siblings := make([]string, len(folder.Children))
	for i, child := range folder.Children {
		siblings[i] = child.ID
	}

	index := board.StoreIndex(siblings, p.ID, p.Order)
	_, err = c.store.Move(ctx, p.ID, store.Destination{ParentID: parent, Index: store.At(index)})
	return err
}

func (c *Coordinator) requireColumn(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, _ := c.model.Column(id); col == nil {
		return fmt.Errorf("column %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (c *Coordinator) requireBookmark(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.model.Bookmarks[id]; !ok {
		return fmt.Errorf("bookmark %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// failed logs and reports a store failure and returns it wrapped.
func (c *Coordinator) failed(action string, err error) error {
	c.log.Error("❌ Store operation failed", logger.String("action", action), logger.Error(err))
	c.notify(NoticeError, "Failed to "+action+": "+err.Error())
	return fmt.Errorf("failed to %s: %w", action, err)
}

func editNotice(err error) string {
	var ve *validation.Error
	if !errors.As(err, &ve) {
		return err.Error()
	}
	switch {
	case ve.Fields["title"] != "":
		return "Title cannot be empty"
	case ve.Fields["url"] == "cannot be empty":
		return "URL cannot be empty"
	default:
		return "Please enter a valid URL"
	}
}
