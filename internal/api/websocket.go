package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"textexpand/internal/engine"
	"textexpand/internal/protocol"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 50 * time.Second
	sendBuffer   = 256
	maxReadBytes = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server only listens locally; the token guards it otherwise.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans messages out to connected stream clients.
type Hub struct {
	state  func() protocol.StatePayload
	logger *slog.Logger

	clients    map[*client]bool
	clientsMu  sync.Mutex
	broadcast  chan protocol.Message
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ip   string
}

func newHub(state func() protocol.StatePayload, logger *slog.Logger) *Hub {
	return &Hub{
		state:      state,
		logger:     logger,
		clients:    make(map[*client]bool),
		broadcast:  make(chan protocol.Message, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clientsMu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Info("[api] stream client connected", "remote", c.ip, "clients", n)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-ctx.Done():
			h.clientsMu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Info("[api] stream client disconnected", "remote", c.ip, "clients", len(h.clients))
	}
}

func (h *Hub) fanOut(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("[api] failed to marshal message", "type", msg.Type, "error", err)
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Too slow to keep up; drop the client.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(msg protocol.Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug("[api] broadcast queue full, dropping message", "type", msg.Type)
	}
}

// BroadcastFired is an engine fire observer.
func (h *Hub) BroadcastFired(f engine.Fired) {
	h.Broadcast(protocol.Message{
		Type: protocol.TypeFired,
		Payload: protocol.FiredPayload{
			ID:          uuid.NewString(),
			Kind:        string(f.Kind),
			Trigger:     f.Trigger,
			Description: f.Description,
			Time:        f.Time,
		},
	})
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("[api] websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		ip:   r.RemoteAddr,
	}

	// Greet with the current state before any broadcast can arrive.
	if data, err := json.Marshal(protocol.Message{Type: protocol.TypeState, Payload: h.state()}); err == nil {
		c.send <- data
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump discards client messages and notices when the client goes away.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("[api] websocket read error", "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
