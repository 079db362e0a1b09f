package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// inboundBufSize is the depth of the group's fan-out queue.
	inboundBufSize = 64

	// maxMessageSize is the largest text frame accepted from a client.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Chat is the payload of a "message" event.
type Chat struct {
	Text   string `json:"text"`
	SentAt string `json:"sent_at"` // RFC3339
}

// Welcome is the payload of the "connected" event sent once per client.
type Welcome struct {
	Group   string `json:"group"`
	Clients int    `json:"clients"`
}

// Hub is the example consumer: every connected client joins one group and
// every text frame received from any client is relayed to all members.
type Hub struct {
	group   string
	inbound chan []byte

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool // set by closeAll; no clients are accepted afterwards
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub for the named group.
func New(group string) *Hub {
	return &Hub{
		group:   group,
		inbound: make(chan []byte, inboundBufSize),
		clients: make(map[*client]struct{}),
	}
}

// Run relays queued messages to the group. Run blocks until ctx is
// cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case text := <-h.inbound:
			data, err := json.Marshal(Message{
				Event: "message",
				Data:  Chat{Text: string(text), SentAt: time.Now().UTC().Format(time.RFC3339)},
			})
			if err != nil {
				continue
			}
			h.broadcast(data)
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends a "connected" event immediately, then relays group messages until
// the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	n, ok := h.register(c)
	if !ok {
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	defer h.unregister(c)

	slog.Debug("ws: client connected", "group", h.group, "remote", r.RemoteAddr, "clients", n)

	go c.writePump()
	c.readPump(h.inbound) // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// register adds c to the group and queues the "connected" event while the
// lock is held, so a concurrent closeAll cannot close c.send first. It reports
// false once the hub has shut down.
func (h *Hub) register(c *client) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	if data, err := json.Marshal(Message{Event: "connected", Data: Welcome{Group: h.group, Clients: n}}); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}
	return n, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues data for every client. Sends happen under the read lock
// so no channel can be closed mid-send.
func (h *Hub) broadcast(data []byte) {
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		// Client's outgoing buffer is full; disconnect it.
		slog.Warn("ws: dropping slow client", "group", h.group)
		h.unregister(c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection and queues text frames for the
// group. Control frames keep the read deadline fresh. Blocks until the
// connection closes.
func (c *client) readPump(inbound chan<- []byte) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case inbound <- msg:
		default:
			slog.Warn("ws: group queue full, dropping message")
		}
	}
}
