package board

import (
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/bookmarko/internal/domain"
)

// ErrIndexOutOfRange is returned when a reorder index is not a valid
// position of the input sequence.
var ErrIndexOutOfRange = errors.New("index out of range")

// ReorderColumns moves the column at from to position to. The input slice
// is not modified.
func ReorderColumns(columns []*domain.Column, from, to int) ([]*domain.Column, error) {
	return reorder(columns, from, to)
}

// ReorderWithinColumn moves the bookmark id at from to position to inside
// one column. The input slice is not modified.
func ReorderWithinColumn(ids []string, from, to int) ([]string, error) {
	return reorder(ids, from, to)
}

// MoveBetweenColumns removes the id at from in source and inserts it at to
// in destination. It returns both new sequences; the caller writes them back
// into the two columns. Inputs are not modified.
func MoveBetweenColumns(source, destination []string, from, to int) ([]string, []string, error) {
	if from < 0 || from >= len(source) {
		return nil, nil, fmt.Errorf("source index %d of %d: %w", from, len(source), ErrIndexOutOfRange)
	}
	if to < 0 || to > len(destination) {
		return nil, nil, fmt.Errorf("destination index %d of %d: %w", to, len(destination), ErrIndexOutOfRange)
	}

	moved := source[from]
	src := make([]string, 0, len(source)-1)
	src = append(src, source[:from]...)
	src = append(src, source[from+1:]...)

	dst := insert(destination, to, moved)
	return src, dst, nil
}

func insert(ids []string, at int, id string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:at]...)
	out = append(out, id)
	return append(out, ids[at:]...)
}

func reorder[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) {
		return nil, fmt.Errorf("from index %d of %d: %w", from, len(items), ErrIndexOutOfRange)
	}
	if to < 0 || to >= len(items) {
		return nil, fmt.Errorf("to index %d of %d: %w", to, len(items), ErrIndexOutOfRange)
	}

	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	moved := items[from]
	out = append(out, moved)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out, nil
}

// Recolor sets the local color of a column or bookmark. It reports false
// when id is unknown.
func Recolor(m *Model, id string, color domain.Color) bool {
	if col, _ := m.Column(id); col != nil {
		col.Color = color
		return true
	}
	if b, ok := m.Bookmarks[id]; ok {
		b.Color = color
		return true
	}
	return false
}

// StoreIndex maps a display position to a store index. siblings is the
// store child order of the destination folder (it may contain id and nodes
// the board does not show), order is the new display order containing id.
// The result places id right after its nearest displayed predecessor, or
// right before its nearest displayed successor, counted once id has been
// taken out of siblings.
func StoreIndex(siblings []string, id string, order []string) int {
	rest := without(siblings, id)
	k := indexOf(order, id)
	if k < 0 {
		return len(rest)
	}
	for j := k - 1; j >= 0; j-- {
		if i := indexOf(rest, order[j]); i >= 0 {
			return i + 1
		}
	}
	for j := k + 1; j < len(order); j++ {
		if i := indexOf(rest, order[j]); i >= 0 {
			return i
		}
	}
	return len(rest)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
