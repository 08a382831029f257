package api

import (
	"context"
	"sync"
)

// ============================================================
// WebSocket Hub
// ============================================================

// Message types exchanged over the live session.
const (
	MsgSignals = "signals" // client → server: host page classes and OS preference
	MsgRender  = "render"  // client → server: new gauge configuration
	MsgPing    = "ping"
	MsgSVG     = "svg" // server → client: re-rendered gauge
	MsgMode    = "mode"
	MsgPong    = "pong"
	MsgError   = "error"
)

// Scopes of a mode message.
const (
	ScopeSession = "session" // the connection's own signals changed
	ScopeServer  = "server"  // the server-wide host page or config changed
)

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ModeMessage is the data of a mode message.
type ModeMessage struct {
	Mode  string `json:"mode"`
	Scope string `json:"scope"`
}

// SVGMessage is the data of an svg message.
type SVGMessage struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
	SVG  string `json:"svg"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
	done       chan struct{}
}

// WSClient represents a single WebSocket connection. Its send channel is
// closed once, by the hub, when the client leaves or falls behind.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage

	mu     sync.Mutex
	closed bool
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
	}
}

// NewClient returns a client attached to h with a buffered send queue.
func (h *WSHub) NewClient() *WSClient {
	return &WSClient{hub: h, send: make(chan WSMessage, 256)}
}

// Run starts the hub event loop. It returns when ctx is cancelled, closing
// every remaining client. Run must be called at most once.
func (h *WSHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.Send(msg) {
					// Slow client; disconnect
					delete(h.clients, client)
					client.close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub. A client registered after the hub
// stopped is closed straight away.
func (h *WSHub) Register(client *WSClient) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Send queues msg without blocking. It reports false when the queue is
// full or the client has been closed.
func (c *WSClient) Send(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
