package domain

// Bookmark is a card on the board: a link node of the bookmark store
// as seen by the UI.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the store-assigned node id. Stable for the node lifetime.
	ID string `json:"id"`

	// ─────────────────────────────
	// Store data
	// (overwritten on every change event)
	// ─────────────────────────────

	// Title is the display string.
	Title string `json:"title"`

	// URL is the absolute link target.
	// Example: https://docs.example.com
	URL string `json:"url"`

	// ─────────────────────────────
	// Local-only metadata
	// ─────────────────────────────

	// Color is assigned once when the id is first observed.
	// It never comes from the store and is never written back to it.
	Color Color `json:"color"`
}

// Column is a folder directly under the watched root.
type Column struct {
	// ID is the store-assigned folder id.
	ID string `json:"id"`

	// Title is the folder name.
	Title string `json:"title"`

	// Color is local-only, like Bookmark.Color.
	Color Color `json:"color"`

	// BookmarkIDs is the display order of the cards in this column.
	// It is not guaranteed to match the store's child index order.
	BookmarkIDs []string `json:"bookmark_ids"`
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	ids := make([]string, len(c.BookmarkIDs))
	copy(ids, c.BookmarkIDs)
	return &Column{
		ID:          c.ID,
		Title:       c.Title,
		Color:       c.Color,
		BookmarkIDs: ids,
	}
}

// IndexOf returns the position of id in the column, or -1.
func (c *Column) IndexOf(id string) int {
	for i, bid := range c.BookmarkIDs {
		if bid == id {
			return i
		}
	}
	return -1
}
