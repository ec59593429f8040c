package board

import (
	"fmt"

	"github.com/MrSnakeDoc/bookmarko/internal/domain"
)

// DropType distinguishes column drags from card drags.
type DropType string

const (
	DropColumn   DropType = "column"
	DropBookmark DropType = "bookmark"
)

// Location is a position inside a droppable area. For column drags the
// droppable is the board itself and DroppableID is ignored.
type Location struct {
	DroppableID string `json:"droppableId"`
	Index       int    `json:"index"`
}

// DropResult is the outcome of a drag reported by the UI.
// A nil Destination means the drag was cancelled.
type DropResult struct {
	Type        DropType  `json:"type" validate:"required,oneof=column bookmark"`
	DraggableID string    `json:"draggableId"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination,omitempty"`
}

// Placement describes where the dragged node now sits in the display so
// the caller can push the order to the store.
type Placement struct {
	// ID is the dragged column or bookmark.
	ID string
	// ParentID is the destination folder id; empty for column drags (the
	// watched root).
	ParentID string
	// Order is the new display order of the destination: column ids for
	// column drags, bookmark ids otherwise.
	Order []string
}

// ApplyDrop computes the model after a drop. m is not modified; columns
// not involved in the drop are shared with the result. A nil placement
// means nothing moved.
func ApplyDrop(m *Model, drop DropResult) (*Model, *Placement, error) {
	if drop.Destination == nil {
		return m, nil, nil
	}
	src, dst := drop.Source, *drop.Destination

	out := &Model{Columns: m.Columns, Bookmarks: m.Bookmarks}

	if drop.Type == DropColumn {
		if src.Index == dst.Index {
			return m, nil, nil
		}
		cols, err := ReorderColumns(m.Columns, src.Index, dst.Index)
		if err != nil {
			return nil, nil, err
		}
		out.Columns = cols
		order := make([]string, len(cols))
		for i, c := range cols {
			order[i] = c.ID
		}
		return out, &Placement{ID: cols[dst.Index].ID, Order: order}, nil
	}

	srcCol, srcIdx := m.Column(src.DroppableID)
	dstCol, dstIdx := m.Column(dst.DroppableID)
	if srcCol == nil || dstCol == nil {
		return nil, nil, fmt.Errorf("drop between %q and %q: unknown column", src.DroppableID, dst.DroppableID)
	}

	out.Columns = make([]*domain.Column, len(m.Columns))
	copy(out.Columns, m.Columns)

	if srcIdx == dstIdx {
		if src.Index == dst.Index {
			return m, nil, nil
		}
		ids, err := ReorderWithinColumn(srcCol.BookmarkIDs, src.Index, dst.Index)
		if err != nil {
			return nil, nil, err
		}
		col := srcCol.Clone()
		col.BookmarkIDs = ids
		out.Columns[srcIdx] = col
		return out, &Placement{ID: ids[dst.Index], ParentID: col.ID, Order: ids}, nil
	}

	srcIDs, dstIDs, err := MoveBetweenColumns(srcCol.BookmarkIDs, dstCol.BookmarkIDs, src.Index, dst.Index)
	if err != nil {
		return nil, nil, err
	}
	newSrc := srcCol.Clone()
	newSrc.BookmarkIDs = srcIDs
	newDst := dstCol.Clone()
	newDst.BookmarkIDs = dstIDs
	out.Columns[srcIdx] = newSrc
	out.Columns[dstIdx] = newDst
	return out, &Placement{ID: dstIDs[dst.Index], ParentID: newDst.ID, Order: dstIDs}, nil
}
