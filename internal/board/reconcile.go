package board

import (
	"slices"

	"github.com/MrSnakeDoc/bookmarko/internal/domain"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
)

// Options select how the reconciler handles the cases where the store
// change stream alone cannot keep the model consistent.
type Options struct {
	// CascadeFolderRemoval deletes the bookmarks of a removed column from
	// the mapping. Without it they stay behind as orphans.
	CascadeFolderRemoval bool

	// SurfaceNestedFolders turns every created folder into a top-level
	// column, whatever its parent. Without it only folders created directly
	// under the watched root become columns.
	SurfaceNestedFolders bool

	// DropOutOfScope deletes a bookmark moved to a parent that is not a
	// column. Without it the bookmark stays in the mapping, in no column.
	DropOutOfScope bool

	// FollowStoreOrder asks the caller to realign a column with the store
	// after a bookmark moves into or within it. Moved bookmarks are always
	// appended first; the event index counts every child of the folder,
	// nested folders included, so it cannot place a card by itself.
	FollowStoreOrder bool
}

// DefaultOptions keeps the model invariant under every event.
func DefaultOptions() Options {
	return Options{
		CascadeFolderRemoval: true,
		SurfaceNestedFolders: false,
		DropOutOfScope:       true,
	}
}

// LegacyOptions reproduces the extension's listener behavior, including
// the orphan and dangling-entry gaps.
func LegacyOptions() Options {
	return Options{}
}

// Outcome reports what Apply did.
type Outcome struct {
	// Changed is set when the model was modified.
	Changed bool
	// Miss is set when the event referenced an id or parent the model
	// does not know. Misses are expected and silently ignored.
	Miss bool
	// Fetch names a node that entered the watched scope without enough
	// data in the event; the caller should read its subtree from the store
	// and pass it to Adopt.
	Fetch string
	// Realign names a column whose card order should be read back from
	// the store and passed to Realign.
	Realign string
	// Resync is set when the event cannot be patched incrementally.
	Resync bool
	// Dropped lists bookmark ids deleted from the mapping as a side effect.
	Dropped []string
}

// Reconciler patches a model from store change events.
type Reconciler struct {
	Root    string
	Colors  domain.ColorSource
	Options Options
}

// NewReconciler creates a reconciler for the given watched root.
func NewReconciler(root string, colors domain.ColorSource, opts Options) *Reconciler {
	if colors == nil {
		colors = domain.RandomColor
	}
	return &Reconciler{Root: root, Colors: colors, Options: opts}
}

// Apply patches m with one event.
func (r *Reconciler) Apply(m *Model, ev store.Event) Outcome {
	switch ev.Kind {
	case store.EventCreated:
		return r.created(m, ev)
	case store.EventRemoved:
		return r.removed(m, ev)
	case store.EventChanged:
		return r.changed(m, ev)
	case store.EventMoved:
		return r.moved(m, ev)
	default:
		return Outcome{Miss: true}
	}
}

func (r *Reconciler) created(m *Model, ev store.Event) Outcome {
	if ev.Node == nil {
		return Outcome{Miss: true}
	}
	return r.Adopt(m, ev.Node)
}

// Adopt inserts a node read from the store: a link joins its parent column,
// a folder becomes a column together with its direct links. Ids already in
// the model are left untouched.
func (r *Reconciler) Adopt(m *Model, n *store.Node) Outcome {
	if !n.IsFolder() {
		if _, known := m.Bookmarks[n.ID]; known {
			return Outcome{}
		}
		col, _ := m.Column(n.ParentID)
		if col == nil {
			return Outcome{Miss: true}
		}
		m.Bookmarks[n.ID] = &domain.Bookmark{
			ID:    n.ID,
			Title: n.Title,
			URL:   n.URL,
			Color: r.Colors(),
		}
		col.BookmarkIDs = append(col.BookmarkIDs, n.ID)
		return Outcome{Changed: true}
	}

	if col, _ := m.Column(n.ID); col != nil {
		return Outcome{}
	}
	if n.ParentID != r.Root && !r.Options.SurfaceNestedFolders {
		return Outcome{Miss: true}
	}

	col := &domain.Column{
		ID:          n.ID,
		Title:       n.Title,
		BookmarkIDs: []string{},
	}
	for _, child := range n.Children {
		if child.IsFolder() {
			continue
		}
		if _, known := m.Bookmarks[child.ID]; known {
			continue
		}
		m.Bookmarks[child.ID] = &domain.Bookmark{
			ID:    child.ID,
			Title: child.Title,
			URL:   child.URL,
			Color: r.Colors(),
		}
		col.BookmarkIDs = append(col.BookmarkIDs, child.ID)
	}
	col.Color = r.Colors()
	m.Columns = append(m.Columns, col)
	return Outcome{Changed: true}
}

func (r *Reconciler) removed(m *Model, ev store.Event) Outcome {
	if ev.WasBookmark() {
		if _, ok := m.Bookmarks[ev.ID]; !ok {
			return Outcome{Miss: true}
		}
		delete(m.Bookmarks, ev.ID)
		if col := m.ColumnOf(ev.ID); col != nil {
			col.BookmarkIDs = without(col.BookmarkIDs, ev.ID)
		}
		return Outcome{Changed: true}
	}

	col, idx := m.Column(ev.ID)
	if col == nil {
		return Outcome{Miss: true}
	}
	return Outcome{Changed: true, Dropped: r.dropColumn(m, col, idx)}
}

func (r *Reconciler) changed(m *Model, ev store.Event) Outcome {
	if ev.URL != "" {
		b, ok := m.Bookmarks[ev.ID]
		if !ok {
			return Outcome{Miss: true}
		}
		if ev.Title != "" {
			b.Title = ev.Title
		}
		b.URL = ev.URL
		return Outcome{Changed: true}
	}

	if col, _ := m.Column(ev.ID); col != nil {
		col.Title = ev.Title
		return Outcome{Changed: true}
	}
	// Title-only change on a link
	if b, ok := m.Bookmarks[ev.ID]; ok {
		b.Title = ev.Title
		return Outcome{Changed: true}
	}
	return Outcome{Miss: true}
}

func (r *Reconciler) moved(m *Model, ev store.Event) Outcome {
	if _, ok := m.Bookmarks[ev.ID]; ok {
		return r.movedBookmark(m, ev)
	}

	if col, idx := m.Column(ev.ID); col != nil {
		if ev.ParentID == r.Root {
			// Column reordered by another client: the index counts links
			// directly under root, so only a full read places it correctly.
			return Outcome{Resync: true}
		}
		if r.Options.SurfaceNestedFolders {
			return Outcome{}
		}
		return Outcome{Changed: true, Dropped: r.dropColumn(m, col, idx)}
	}

	// Unknown node entering a column or the root level
	if dest, _ := m.Column(ev.ParentID); dest != nil || ev.ParentID == r.Root {
		return Outcome{Fetch: ev.ID}
	}
	return Outcome{Miss: true}
}

func (r *Reconciler) movedBookmark(m *Model, ev store.Event) Outcome {
	if src := m.ColumnOf(ev.ID); src != nil {
		src.BookmarkIDs = without(src.BookmarkIDs, ev.ID)
	}

	dest, _ := m.Column(ev.ParentID)
	if dest == nil {
		if !r.Options.DropOutOfScope {
			return Outcome{Changed: true}
		}
		delete(m.Bookmarks, ev.ID)
		return Outcome{Changed: true, Dropped: []string{ev.ID}}
	}

	dest.BookmarkIDs = append(dest.BookmarkIDs, ev.ID)
	out := Outcome{Changed: true}
	if r.Options.FollowStoreOrder {
		out.Realign = dest.ID
	}
	return out
}

// Realign orders the cards of the column for folder like the folder's links
// in the store. Nested folders are ignored. Cards the store no longer lists
// under the folder keep their relative order at the end.
func (r *Reconciler) Realign(m *Model, folder *store.Node) Outcome {
	col, _ := m.Column(folder.ID)
	if col == nil {
		return Outcome{Miss: true}
	}

	onBoard := make(map[string]bool, len(col.BookmarkIDs))
	for _, id := range col.BookmarkIDs {
		onBoard[id] = true
	}

	ordered := make([]string, 0, len(col.BookmarkIDs))
	placed := make(map[string]bool, len(col.BookmarkIDs))
	for _, child := range folder.Children {
		if child.IsFolder() || !onBoard[child.ID] {
			continue
		}
		ordered = append(ordered, child.ID)
		placed[child.ID] = true
	}
	for _, id := range col.BookmarkIDs {
		if !placed[id] {
			ordered = append(ordered, id)
		}
	}

	if slices.Equal(ordered, col.BookmarkIDs) {
		return Outcome{}
	}
	col.BookmarkIDs = ordered
	return Outcome{Changed: true}
}

// dropColumn removes the column at idx and, when cascading, its bookmarks.
func (r *Reconciler) dropColumn(m *Model, col *domain.Column, idx int) []string {
	m.Columns = append(m.Columns[:idx:idx], m.Columns[idx+1:]...)
	if !r.Options.CascadeFolderRemoval {
		return nil
	}
	dropped := make([]string, 0, len(col.BookmarkIDs))
	for _, id := range col.BookmarkIDs {
		delete(m.Bookmarks, id)
		dropped = append(dropped, id)
	}
	return dropped
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

