package board

import (
	"github.com/MrSnakeDoc/bookmarko/internal/domain"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
)

// Flatten converts the watched root into a model. Only two levels are read:
// folders directly under root become columns, links directly under those
// folders become bookmarks, both in store order. Links directly under root
// and nested folders are skipped.
func Flatten(root *store.Node, colors domain.ColorSource) *Model {
	return FlattenKeepingColors(root, nil, colors)
}

// FlattenKeepingColors is Flatten for a full resync: ids already present in
// prev keep their color, new ids draw from colors.
func FlattenKeepingColors(root *store.Node, prev *Model, colors domain.ColorSource) *Model {
	m := NewModel()
	if root == nil {
		return m
	}

	known := knownColors(prev)
	colorFor := func(id string) domain.Color {
		if c, ok := known[id]; ok {
			return c
		}
		return colors()
	}

	for _, node := range root.Children {
		if !node.IsFolder() {
			continue
		}

		col := &domain.Column{
			ID:          node.ID,
			Title:       node.Title,
			BookmarkIDs: make([]string, 0, len(node.Children)),
		}
		for _, child := range node.Children {
			if child.IsFolder() {
				continue
			}
			m.Bookmarks[child.ID] = &domain.Bookmark{
				ID:    child.ID,
				Title: child.Title,
				URL:   child.URL,
				Color: colorFor(child.ID),
			}
			col.BookmarkIDs = append(col.BookmarkIDs, child.ID)
		}
		col.Color = colorFor(node.ID)
		m.Columns = append(m.Columns, col)
	}

	return m
}

// ShapeOf returns the layout Flatten would produce for root, without
// building bookmark records.
func ShapeOf(root *store.Node) Shape {
	if root == nil {
		return Shape{}
	}
	out := Shape{}
	for _, node := range root.Children {
		if !node.IsFolder() {
			continue
		}
		row := []string{node.ID}
		for _, child := range node.Children {
			if !child.IsFolder() {
				row = append(row, child.ID)
			}
		}
		out = append(out, row)
	}
	return out
}

func knownColors(prev *Model) map[string]domain.Color {
	if prev == nil {
		return nil
	}
	out := make(map[string]domain.Color, len(prev.Bookmarks)+len(prev.Columns))
	for id, b := range prev.Bookmarks {
		out[id] = b.Color
	}
	for _, c := range prev.Columns {
		out[c.ID] = c.Color
	}
	return out
}
