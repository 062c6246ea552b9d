package events

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"consilium/internal/workflow"
	"consilium/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHub broadcasts run progress events to connected clients.
// It implements workflow.Sink; a client that cannot keep up is
// disconnected rather than allowed to back up the broadcast.
type WebSocketHub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *logger.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewWebSocketHub creates an empty hub.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients: make(map[*client]struct{}),
		log:     logger.Get().With("component", "websocket_hub"),
	}
}

// ServeHTTP upgrades the request and registers the connection for
// event broadcasts.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// Publish implements workflow.Sink.
func (h *WebSocketHub) Publish(event workflow.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("failed to marshal run event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow client: close the queue, writePump tears it down.
			go h.remove(c)
		}
	}
}

// Close disconnects every client.
func (h *WebSocketHub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (h *WebSocketHub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	if ok {
		close(c.send)
	}
}

func (h *WebSocketHub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump drains client frames so control messages are processed and
// disconnects are noticed.
func (h *WebSocketHub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}
