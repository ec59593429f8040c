package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/MrSnakeDoc/bookmarko/internal/board"
	"github.com/MrSnakeDoc/bookmarko/internal/boardsync"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/search"
)

// SSE event names.
const (
	eventConnected = "connected"
	eventBoard     = "board"
	eventNotice    = "notice"
	eventHeartbeat = "heartbeat"
)

const defaultHeartbeat = 30 * time.Second

type connectedEvent struct {
	ClientID string `json:"client_id"`
}

type heartbeatEvent struct {
	Time time.Time `json:"time"`
}

type queryRequest struct {
	Q string `json:"q"`
}

// Events streams the board over Server-Sent Events: the current view on
// connect, a new view after every model change and the user notices. The
// q parameter sets the initial filter; later input goes through
// SearchQuery and is applied once the client stops typing.
func Events(d deps.Deps) http.HandlerFunc {
	heartbeat := d.SSEHeartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	searches := d.Searches
	if searches == nil {
		searches = search.NewRegistry(0)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			return
		}

		id, err := gonanoid.New()
		if err != nil {
			d.Logger.Error("failed to generate SSE client id", logger.Error(err))
			http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
			return
		}
		clientID := "sse-" + id

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		rc := http.NewResponseController(w)
		// The server read and write timeouts would cut the stream.
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		// Only the latest model and view matter; older ones are replaced.
		models := make(chan *board.Model, 1)
		views := make(chan board.View, 1)
		sess := searches.Open(clientID, r.URL.Query().Get("q"), d.Board, func(v board.View) {
			replaceLatest(views, v)
		})
		defer searches.Close(clientID, sess)

		notices := make(chan boardsync.Notice, 16)
		unsubscribe := d.Board.Subscribe(func(u boardsync.Update) {
			if u.Model != nil {
				replaceLatest(models, u.Model)
			}
			if u.Notice != nil {
				select {
				case notices <- *u.Notice:
				default:
				}
			}
		})
		defer unsubscribe()

		log := d.Logger.With(logger.String("client_id", clientID))
		log.Debug("SSE client connected")
		defer log.Debug("SSE client disconnected")

		s := &sseWriter{w: w, rc: rc, deadline: 2 * heartbeat}
		if err := s.send(eventConnected, connectedEvent{ClientID: clientID}); err != nil {
			return
		}
		if err := s.send(eventBoard, sess.View()); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case m := <-models:
				err = s.send(eventBoard, board.Filter(m, sess.Query()))
			case v := <-views:
				err = s.send(eventBoard, v)
			case n := <-notices:
				err = s.send(eventNotice, n)
			case now := <-ticker.C:
				err = s.send(eventHeartbeat, heartbeatEvent{Time: now.UTC()})
			case <-r.Context().Done():
				return
			}
			if err != nil {
				log.Debug("SSE write failed", logger.Error(err))
				return
			}
		}
	}
}

// SearchQuery takes search input for an open event stream. The stream
// emits the filtered board once the input has been quiet for the debounce
// delay.
func SearchQuery(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, d, err)
			return
		}
		if d.Searches == nil || !d.Searches.Type(chi.URLParam(r, "client"), req.Q) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no open event stream for this client"})
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func replaceLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

type sseWriter struct {
	w        http.ResponseWriter
	rc       *http.ResponseController
	deadline time.Duration
}

// send writes one event frame and flushes it.
func (s *sseWriter) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil {
		return err
	}
	// Not every ResponseWriter supports deadlines.
	_ = s.rc.SetWriteDeadline(time.Now().Add(s.deadline))
	return nil
}
