package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openalgoflow/engine/pkg/observer"
)

// executionEvent is the wire shape streamed over /ws/executions.
type executionEvent struct {
	WorkflowID string    `json:"workflow_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// hub fans observer.Event values out to every connected websocket client.
// It implements observer.Observer so the same observer.Manager that feeds
// telemetry and console logging also feeds live clients.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// OnEvent implements observer.Observer, translating every workflow- and
// node-level lifecycle event into the public execution event shape and
// broadcasting it to all connected clients.
func (h *hub) OnEvent(ctx context.Context, event observer.Event) {
	message := string(event.Type)
	if event.Error != nil {
		message = event.Error.Error()
	}
	h.broadcast(executionEvent{
		WorkflowID: event.WorkflowID,
		Status:     string(event.Status),
		Message:    message,
		Timestamp:  event.Timestamp,
	})
}

func (h *hub) broadcast(evt executionEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients authenticate via bearer token on the HTTP upgrade request
	// (checked by requireAuth before this handler runs), so the usual
	// same-origin browser restriction isn't the security boundary here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("websocket upgrade failed")
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	// Drain and discard inbound messages; this is a push-only stream and
	// reading keeps the connection's close/ping control frames flowing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
