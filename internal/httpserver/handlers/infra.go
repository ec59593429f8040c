package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Backend     string `json:"backend,omitempty"`
	Columns     *int   `json:"columns,omitempty"`
	Bookmarks   *int   `json:"bookmarks,omitempty"`
	Subscribers *int   `json:"subscribers,omitempty"`
	Searches    *int   `json:"searches,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the store, the board model and the event
// stream listeners.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := d.Board.Snapshot()
		columns, bookmarks := len(snapshot.Columns), len(snapshot.Bookmarks)
		subscribers := d.Board.Subscribers()
		var searches int
		if d.Searches != nil {
			searches = d.Searches.Len()
		}

		components := map[string]componentStatus{
			"store": checkStore(r.Context(), d),
			"board": {
				OK:        d.Board.Ready(),
				Columns:   &columns,
				Bookmarks: &bookmarks,
			},
			"events": {
				OK:          true,
				Subscribers: &subscribers,
				Searches:    &searches,
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if b, exists := components["board"]; exists && !b.OK {
		return "critical" // Board never loaded
	}
	if s, exists := components["store"]; exists && !s.OK {
		return "degraded" // Store unreachable, board is stale
	}
	return "ok"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Backend: d.StoreBackend}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Backend: d.StoreBackend, Error: err.Error()}
	}
	return componentStatus{OK: true, Backend: d.StoreBackend}
}
