package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarko/internal/domain"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
)

func newModel(t *testing.T) *Model {
	t.Helper()
	m := Flatten(sampleTree(), domain.FixedColor(domain.ColorBlue))
	require.NoError(t, m.Check())
	return m
}

func reconciler(opts Options) *Reconciler {
	return NewReconciler(root, domain.FixedColor(domain.ColorOrange), opts)
}

func TestReconcileCreatedBookmark(t *testing.T) {
	m := newModel(t)
	out := reconciler(DefaultOptions()).Apply(m, store.Created(link("50", "20", "Mail", "https://mail.example.com")))

	assert.True(t, out.Changed)
	assert.Equal(t, []string{"21", "50"}, m.Columns[1].BookmarkIDs)
	assert.Equal(t, domain.ColorOrange, m.Bookmarks["50"].Color)
	assert.NoError(t, m.Check())
}

func TestReconcileCreatedOutsideScope(t *testing.T) {
	tests := []struct {
		name string
		node *store.Node
	}{
		{"link under nested folder", link("50", "13", "x", "https://x.example.com")},
		{"link under root", link("50", root, "x", "https://x.example.com")},
		{"link in other bookmarks", link("50", store.OtherBookmarks, "x", "https://x.example.com")},
		{"nested folder", folder("50", "10", "Sub")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(t)
			before := m.Clone()
			out := reconciler(DefaultOptions()).Apply(m, store.Created(tt.node))
			assert.True(t, out.Miss)
			assert.False(t, out.Changed)
			assert.Equal(t, before, m)
		})
	}
}

func TestReconcileCreatedDuplicateIsNoop(t *testing.T) {
	m := newModel(t)
	r := reconciler(DefaultOptions())
	r.Apply(m, store.Created(link("50", "20", "Mail", "https://mail.example.com")))
	out := r.Apply(m, store.Created(link("50", "20", "Mail", "https://mail.example.com")))

	assert.False(t, out.Changed)
	assert.Equal(t, []string{"21", "50"}, m.Columns[1].BookmarkIDs)
	assert.NoError(t, m.Check())
}

func TestReconcileCreatedFolder(t *testing.T) {
	m := newModel(t)
	out := reconciler(DefaultOptions()).Apply(m, store.Created(folder("50", root, "New Column")))

	assert.True(t, out.Changed)
	require.Len(t, m.Columns, 4)
	assert.Equal(t, "New Column", m.Columns[3].Title)
	assert.Empty(t, m.Columns[3].BookmarkIDs)
	assert.NoError(t, m.Check())
}

func TestReconcileNestedFolderLegacy(t *testing.T) {
	m := newModel(t)
	out := reconciler(Options{SurfaceNestedFolders: true}).Apply(m, store.Created(folder("50", "10", "Sub")))

	assert.True(t, out.Changed)
	require.Len(t, m.Columns, 4)
	assert.Equal(t, "50", m.Columns[3].ID)
}

func TestReconcileRemovedBookmark(t *testing.T) {
	m := newModel(t)
	n := link("11", "10", "Docs", "https://docs.example.com")
	out := reconciler(DefaultOptions()).Apply(m, store.Removed(n, "10", 0))

	assert.True(t, out.Changed)
	assert.Equal(t, []string{"12"}, m.Columns[0].BookmarkIDs)
	assert.NotContains(t, m.Bookmarks, "11")
	assert.NoError(t, m.Check())
}

func TestReconcileRemovedFolderCascades(t *testing.T) {
	m := newModel(t)
	n := folder("10", root, "Work",
		link("11", "10", "Docs", "https://docs.example.com"),
		link("12", "10", "Wiki", "https://wiki.example.com"),
	)
	out := reconciler(DefaultOptions()).Apply(m, store.Removed(n, root, 0))

	assert.True(t, out.Changed)
	assert.ElementsMatch(t, []string{"11", "12"}, out.Dropped)
	assert.Equal(t, Shape{{"20", "21"}, {"40"}}, m.Shape())
	assert.NoError(t, m.Check())
}

// Without cascading, the removed folder's bookmarks stay in the mapping
// and the model no longer satisfies its invariant.
func TestReconcileRemovedFolderLegacyLeavesOrphans(t *testing.T) {
	m := newModel(t)
	n := folder("10", root, "Work")
	out := reconciler(LegacyOptions()).Apply(m, store.Removed(n, root, 0))

	assert.True(t, out.Changed)
	assert.Empty(t, out.Dropped)
	assert.ElementsMatch(t, []string{"11", "12"}, m.Orphans())
	assert.Error(t, m.Check())
}

func TestReconcileRemovedUnknownIsMiss(t *testing.T) {
	m := newModel(t)
	out := reconciler(DefaultOptions()).Apply(m, store.Removed(link("99", "13", "x", "https://x"), "13", 0))
	assert.True(t, out.Miss)
	out = reconciler(DefaultOptions()).Apply(m, store.Removed(folder("99", root, "x"), root, 0))
	assert.True(t, out.Miss)
}

func TestReconcileChanged(t *testing.T) {
	tests := []struct {
		name      string
		node      *store.Node
		wantTitle func(m *Model) string
		want      string
	}{
		{
			name:      "bookmark title and url",
			node:      link("11", "10", "Docs v2", "https://v2.docs.example.com"),
			wantTitle: func(m *Model) string { return m.Bookmarks["11"].Title + " " + m.Bookmarks["11"].URL },
			want:      "Docs v2 https://v2.docs.example.com",
		},
		{
			name:      "bookmark url keeps title when empty",
			node:      link("11", "10", "", "https://v2.docs.example.com"),
			wantTitle: func(m *Model) string { return m.Bookmarks["11"].Title },
			want:      "Docs",
		},
		{
			name:      "column title",
			node:      folder("20", root, "House"),
			wantTitle: func(m *Model) string { return m.Columns[1].Title },
			want:      "House",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(t)
			out := reconciler(DefaultOptions()).Apply(m, store.Changed(tt.node))
			assert.True(t, out.Changed)
			assert.Equal(t, tt.want, tt.wantTitle(m))
			assert.NoError(t, m.Check())
		})
	}
}

func TestReconcileChangedUnknownIsMiss(t *testing.T) {
	m := newModel(t)
	before := m.Clone()
	out := reconciler(DefaultOptions()).Apply(m, store.Changed(link("14", "13", "Deep", "https://deep")))
	assert.True(t, out.Miss)
	assert.Equal(t, before, m)
}

func TestReconcileMovedBookmarkBetweenColumns(t *testing.T) {
	for name, opts := range map[string]Options{"default": DefaultOptions(), "legacy": LegacyOptions()} {
		t.Run(name, func(t *testing.T) {
			m := newModel(t)
			out := reconciler(opts).Apply(m, store.Moved("11", "10", 0, "20", 0))

			assert.True(t, out.Changed)
			assert.Empty(t, out.Realign)
			assert.Equal(t, Shape{{"10", "12"}, {"20", "21", "11"}, {"40"}}, m.Shape())
			assert.NoError(t, m.Check())
		})
	}
}

func TestReconcileMovedWithinColumnAppends(t *testing.T) {
	m := newModel(t)
	out := reconciler(DefaultOptions()).Apply(m, store.Moved("11", "10", 0, "10", 1))

	assert.True(t, out.Changed)
	assert.Equal(t, []string{"12", "11"}, m.Columns[0].BookmarkIDs)
	assert.NoError(t, m.Check())
}

// Work holds a nested folder before its links, so store index 1 is the
// first link position, not the second card.
func nestedFirstTree() *store.Node {
	return folder(root, store.RootID, "Bookmarks bar",
		folder("10", root, "Work",
			folder("13", "10", "Nested"),
			link("11", "10", "Docs", "https://docs.example.com"),
			link("12", "10", "Wiki", "https://wiki.example.com"),
		),
		folder("20", root, "Home",
			link("21", "20", "News", "https://news.example.com"),
		),
	)
}

func TestReconcileMovedIntoColumnWithNestedFolder(t *testing.T) {
	m := Flatten(nestedFirstTree(), domain.FixedColor(domain.ColorBlue))
	out := reconciler(DefaultOptions()).Apply(m, store.Moved("21", "20", 0, "10", 1))

	assert.True(t, out.Changed)
	assert.Empty(t, out.Realign)
	assert.Equal(t, []string{"11", "12", "21"}, m.Columns[0].BookmarkIDs)
	assert.NoError(t, m.Check())
}

func TestReconcileFollowStoreOrderCountsLinksOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.FollowStoreOrder = true
	r := reconciler(opts)

	m := Flatten(nestedFirstTree(), domain.FixedColor(domain.ColorBlue))
	out := r.Apply(m, store.Moved("21", "20", 0, "10", 1))
	require.Equal(t, "10", out.Realign)

	// Store children of Work after the move: [13 21 11 12]
	work := folder("10", root, "Work",
		folder("13", "10", "Nested"),
		link("21", "10", "News", "https://news.example.com"),
		link("11", "10", "Docs", "https://docs.example.com"),
		link("12", "10", "Wiki", "https://wiki.example.com"),
	)
	out = r.Realign(m, work)
	assert.True(t, out.Changed)
	assert.Equal(t, []string{"21", "11", "12"}, m.Columns[0].BookmarkIDs)
	assert.NoError(t, m.Check())

	// Already aligned
	out = r.Realign(m, work)
	assert.False(t, out.Changed)
}

func TestRealignKeepsCardsMissingFromStore(t *testing.T) {
	m := newModel(t)
	r := reconciler(DefaultOptions())

	// Store only lists 12 under Work; 11 stays on the board until its own
	// event arrives.
	out := r.Realign(m, folder("10", root, "Work", link("12", "10", "Wiki", "https://wiki.example.com")))
	assert.True(t, out.Changed)
	assert.Equal(t, []string{"12", "11"}, m.Columns[0].BookmarkIDs)

	out = r.Realign(m, folder("99", root, "Gone"))
	assert.True(t, out.Miss)
}

func TestReconcileMovedOutOfScope(t *testing.T) {
	m := newModel(t)
	out := reconciler(DefaultOptions()).Apply(m, store.Moved("11", "10", 0, store.OtherBookmarks, 0))

	assert.Equal(t, []string{"11"}, out.Dropped)
	assert.NotContains(t, m.Bookmarks, "11")
	assert.NoError(t, m.Check())
}

// The legacy listener leaves a bookmark moved out of the watched root in
// the mapping with no column.
func TestReconcileMovedOutOfScopeLegacyDangles(t *testing.T) {
	m := newModel(t)
	reconciler(LegacyOptions()).Apply(m, store.Moved("11", "10", 0, store.OtherBookmarks, 0))

	assert.Contains(t, m.Bookmarks, "11")
	assert.Equal(t, []string{"11"}, m.Orphans())
	assert.Error(t, m.Check())
}

func TestReconcileMovedColumn(t *testing.T) {
	m := newModel(t)
	r := reconciler(DefaultOptions())

	out := r.Apply(m, store.Moved("20", root, 1, root, 0))
	assert.True(t, out.Resync)

	out = r.Apply(m, store.Moved("20", root, 1, "10", 0))
	assert.True(t, out.Changed)
	assert.Equal(t, []string{"21"}, out.Dropped)
	assert.Equal(t, Shape{{"10", "11", "12"}, {"40"}}, m.Shape())
	assert.NoError(t, m.Check())
}

func TestReconcileMovedUnknownIntoScope(t *testing.T) {
	m := newModel(t)
	r := reconciler(DefaultOptions())

	out := r.Apply(m, store.Moved("14", "13", 0, "20", 1))
	assert.Equal(t, "14", out.Fetch)
	assert.False(t, out.Changed)

	out = r.Apply(m, store.Moved("13", "10", 2, root, 0))
	assert.Equal(t, "13", out.Fetch)

	out = r.Apply(m, store.Moved("14", "13", 0, store.OtherBookmarks, 0))
	assert.True(t, out.Miss)

	// The caller reads the fetched node and adopts it
	node := folder("13", root, "Nested", link("14", "13", "Deep", "https://deep.example.com"))
	out = r.Adopt(m, node)
	assert.True(t, out.Changed)
	assert.Equal(t, []string{"13", "14"}, m.Shape()[3])
	assert.NoError(t, m.Check())
}

// Every default-option event sequence over a valid model keeps it valid.
func TestReconcileDefaultsPreserveInvariant(t *testing.T) {
	m := newModel(t)
	r := reconciler(DefaultOptions())

	events := []store.Event{
		store.Created(link("50", "10", "a", "https://a.example.com")),
		store.Created(folder("60", root, "Col")),
		store.Created(link("61", "60", "b", "https://b.example.com")),
		store.Moved("50", "10", 2, "60", 0),
		store.Moved("21", "20", 0, "13", 0),
		store.Changed(link("61", "60", "B", "https://b.example.com")),
		store.Removed(folder("10", root, "Work"), root, 0),
		store.Moved("60", root, 3, "40", 0),
		store.Removed(link("99", "40", "x", "https://x"), "40", 0),
		store.Created(folder("70", "20", "Sub")),
	}
	for _, ev := range events {
		r.Apply(m, ev)
		require.NoError(t, m.Check(), ev.String())
	}
	assert.Equal(t, Shape{{"20"}, {"40"}}, m.Shape())
	assert.Empty(t, m.Bookmarks)
}
