package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
)

// Event types published on a session's event stream.
const (
	EventAttempt   = "attempt"
	EventCompleted = "completed"
)

// Event is one message on a session's WebSocket stream.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// subscriber is one connected WebSocket client. Its channel is buffered;
// a client that cannot keep up is dropped rather than blocking publishers.
type subscriber struct {
	ch chan Event
}

// Hub fans session events out to WebSocket subscribers. Therapists watch a
// patient's session live; the UI updates progress without polling.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{} // sessionID -> subscribers
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Publish delivers the event to every subscriber of the session. Slow
// subscribers are skipped, not waited on.
func (h *Hub) Publish(sessionID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many clients are watching the session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

func (h *Hub) subscribe(sessionID string) *subscriber {
	sub := &subscriber{ch: make(chan Event, 16)}
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sessionID string, sub *subscriber) {
	h.mu.Lock()
	delete(h.subs[sessionID], sub)
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
	h.mu.Unlock()
}

// SessionEvents upgrades the connection and streams the session's events
// until the client disconnects.
func (a *API) SessionEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := a.store.GetSession(r.Context(), sessionID); err != nil {
		storeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: a.cors,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", sessionID, "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := a.hub.subscribe(sessionID)
	defer a.hub.unsubscribe(sessionID, sub)

	ctx := r.Context()

	// Drain incoming frames so control messages (pings, close) are processed.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sub.ch:
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
