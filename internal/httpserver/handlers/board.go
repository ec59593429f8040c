package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarko/internal/board"
	"github.com/MrSnakeDoc/bookmarko/internal/domain"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/deps"
)

type columnPatch struct {
	Title *string       `json:"title,omitempty"`
	Color *domain.Color `json:"color,omitempty"`
}

type bookmarkPatch struct {
	Title *string       `json:"title,omitempty"`
	URL   *string       `json:"url,omitempty"`
	Color *domain.Color `json:"color,omitempty"`
}

type cancelResponse struct {
	Deleted bool `json:"deleted"`
}

// Board renders the board, filtered by the optional q parameter.
func Board(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Board.View(r.URL.Query().Get("q")))
	}
}

func AddColumn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		node, err := d.Board.AddColumn(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, node)
	}
}

// UpdateColumn renames and/or recolors a column.
func UpdateColumn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch columnPatch
		if err := decode(w, r, &patch); err != nil {
			writeError(w, d, err)
			return
		}

		if patch.Title != nil {
			if err := d.Board.RenameColumn(r.Context(), id, *patch.Title); err != nil {
				writeError(w, d, err)
				return
			}
		}
		if patch.Color != nil {
			if err := d.Board.RecolorColumn(id, *patch.Color); err != nil {
				writeError(w, d, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteColumn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Board.DeleteColumn(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AddBookmark creates a placeholder bookmark at the end of a column.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		node, err := d.Board.AddBookmark(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, node)
	}
}

// UpdateBookmark edits and/or recolors a bookmark. A patch carrying only
// one of title and url keeps the current value of the other.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch bookmarkPatch
		if err := decode(w, r, &patch); err != nil {
			writeError(w, d, err)
			return
		}

		if patch.Title != nil || patch.URL != nil {
			title, url := currentBookmark(d, id)
			if patch.Title != nil {
				title = *patch.Title
			}
			if patch.URL != nil {
				url = *patch.URL
			}
			if err := d.Board.EditBookmark(r.Context(), id, title, url); err != nil {
				writeError(w, d, err)
				return
			}
		}
		if patch.Color != nil {
			if err := d.Board.RecolorBookmark(id, *patch.Color); err != nil {
				writeError(w, d, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Board.DeleteBookmark(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CancelEdit discards a bookmark still holding its placeholder values.
func CancelEdit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := d.Board.CancelEdit(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, cancelResponse{Deleted: deleted})
	}
}

// Drop applies a drag result.
func Drop(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var drop board.DropResult
		if err := decode(w, r, &drop); err != nil {
			writeError(w, d, err)
			return
		}
		if err := d.Board.Drop(r.Context(), drop); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func currentBookmark(d deps.Deps, id string) (title, url string) {
	if b, ok := d.Board.Snapshot().Bookmarks[id]; ok {
		return b.Title, b.URL
	}
	return "", ""
}
