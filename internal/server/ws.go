package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/pinchtree/internal/app"
	"github.com/ayusman/pinchtree/internal/metrics"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 30 * time.Second
	eventsBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler relays app messages to WebSocket clients as JSON: one
// "frame" message per processed frame and a "mode" message per transition.
// A client that falls behind misses messages rather than slowing the
// pipeline.
type EventsHandler struct {
	app     *app.App
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEventsHandler creates an EventsHandler. metrics may be nil.
func NewEventsHandler(a *app.App, m *metrics.Metrics, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{app: a, metrics: m, logger: logger}
}

// ServeHTTP upgrades the connection and streams messages until the client
// goes away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	msgs, unsubscribe := h.app.Subscribe(eventsBuffer)
	defer unsubscribe()

	if h.metrics != nil {
		h.metrics.ClientConnected()
		defer h.metrics.ClientDisconnected()
	}
	h.logger.Debug("events client connected", "remote", r.RemoteAddr)

	// Reads only detect the close; clients send nothing meaningful.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	if err := h.write(conn, app.Message{Type: app.MessageMode, Mode: h.app.Mode()}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			h.logger.Debug("events client disconnected", "remote", r.RemoteAddr)
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := h.write(conn, msg); err != nil {
				h.logger.Debug("events write failed", "error", err)
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, msg app.Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
