// Package stream pushes world snapshots to WebSocket clients and accepts focus requests
// from them.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
	focusTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FocusHandler moves the streaming focus of the world.
type FocusHandler interface {
	Focus(ctx context.Context, pos geometry.Vec2) (chunk.FocusResult, error)
}

// Message is the envelope of every frame sent to clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Request is a frame sent by a client.
type Request struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Z    float64 `json:"z"`
}

type reply struct {
	client *Client
	data   []byte
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of connected clients. All client bookkeeping happens on the Run
// goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	replies    chan reply
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	focus      FocusHandler
	count      atomic.Int32
}

func NewHub(focus FocusHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 16),
		replies:    make(chan reply, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		focus:      focus,
	}
}

// Clients is the number of registered clients.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Run serves register, unregister and broadcast requests until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			log.Debug("stream hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int32(len(h.clients)))
			log.Debug("stream client registered", "remote", c.conn.RemoteAddr().String(), "clients", len(h.clients))

		case c := <-h.unregister:
			h.remove(c)

		case data := <-h.broadcast:
			for c := range h.clients {
				h.deliver(c, data)
			}

		case r := <-h.replies:
			if _, ok := h.clients[r.client]; ok {
				h.deliver(r.client, r.data)
			}
		}
	}
}

func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn("dropping slow stream client", "remote", c.conn.RemoteAddr().String())
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int32(len(h.clients)))
	log.Debug("stream client unregistered", "clients", len(h.clients))
}

// Broadcast queues an event for every client. The event is dropped when the hub is
// backed up.
func (h *Hub) Broadcast(event string, data interface{}) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Warn("stream broadcast queue full, dropping event", "event", event)
	}
	return nil
}

// Forward broadcasts every snapshot received on snapshots as a tick event until ctx is
// cancelled or the channel closes.
func (h *Hub) Forward(ctx context.Context, snapshots <-chan game.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			if h.Clients() == 0 {
				continue
			}
			if err := h.Broadcast("tick", s); err != nil {
				log.Error("failed to encode snapshot", "tick", s.Tick, "error", err)
			}
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
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

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.respond("error", map[string]string{"message": "invalid message"})
		return
	}

	switch req.Type {
	case "focus":
		if c.hub.focus == nil {
			c.respond("error", map[string]string{"message": "focus is not available"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), focusTimeout)
		defer cancel()
		res, err := c.hub.focus.Focus(ctx, geometry.Vec2{X: req.X, Z: req.Z})
		if err != nil {
			log.Error("stream focus failed", "x", req.X, "z", req.Z, "error", err)
			c.respond("error", map[string]string{"message": "focus failed"})
			return
		}
		c.respond("focus", res)
	default:
		c.respond("error", map[string]string{"message": "unknown message type " + req.Type})
	}
}

func (c *Client) respond(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Error("failed to encode reply", "event", event, "error", err)
		return
	}
	select {
	case c.hub.replies <- reply{client: c, data: payload}:
	case <-c.hub.done:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
