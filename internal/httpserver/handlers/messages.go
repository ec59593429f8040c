package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarko/internal/bridge"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/deps"
)

// Messages is the HTTP transport of the bookmark message boundary. Every
// request is answered with 200 and a {success, ...} envelope, except a body
// that is not JSON at all.
func Messages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bridge.Request
		if err := decode(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, bridge.Response{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, d.Bridge.Dispatch(r.Context(), req))
	}
}
