package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hoka-shop/storefront/pkg/darkmode"
	"github.com/hoka-shop/storefront/pkg/toast"
)

// ThemeEventName is the event pushed when the dark-mode theme changes.
const ThemeEventName = "storefront:theme"

const writeWait = 10 * time.Second

// Event is one frame sent to WebSocket clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// client is one WebSocket connection. Writes are serialized per connection.
type client struct {
	conn    *websocket.Conn
	session string
	mu      sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans events out to the WebSocket connections of each session.
type Hub struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger

	onConnect    func()
	onDisconnect func()
}

// NewHub creates a hub accepting upgrades that pass checkOrigin.
func NewHub(checkOrigin func(r *http.Request) bool, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Serve upgrades the request and keeps the connection registered under
// session until the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, session string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, session: session}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	if h.onConnect != nil {
		h.onConnect()
	}
	h.logger.Debug("websocket connected", "session", session)

	// Inbound frames are ignored; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(c)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.conn.Close()
	if h.onDisconnect != nil {
		h.onDisconnect()
	}
	h.logger.Debug("websocket disconnected", "session", c.session)
}

// Send delivers an event to every connection of session.
func (h *Hub) Send(session string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode event", "event", ev.Name, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, 1)
	for c := range h.clients {
		if c.session == session {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.drop(c)
		}
	}
}

// Emitter returns a toast.Emitter that delivers to session.
func (h *Hub) Emitter(session string) toast.Emitter {
	return toast.EmitterFunc(func(name string, data any) {
		h.Send(session, Event{Name: name, Data: data})
	})
}

// Theme returns a darkmode.ThemeApplier that pushes theme events to session.
func (h *Hub) Theme(session string) darkmode.ThemeApplier {
	return darkmode.ThemeFunc(func(enabled bool) {
		h.Send(session, Event{Name: ThemeEventName, Data: themeResponse(enabled)})
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Connected reports whether session has at least one open connection.
func (h *Hub) Connected(session string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.session == session {
			return true
		}
	}
	return false
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.drop(c)
	}
}
