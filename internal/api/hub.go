package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trading-bots/internal/logger"
)

// Message is one event pushed to websocket clients.
type Message struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

const writeWait = 5 * time.Second

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]struct{}
	broadcast   chan Message
	upgrader    websocket.Upgrader
}

// NewHub returns a hub that upgrades requests from origins. No origins, or "*",
// admits any origin.
func NewHub(origins ...string) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]struct{}),
		broadcast:   make(chan Message, 64),
		upgrader: websocket.Upgrader{
			CheckOrigin:  checkOrigin(origins),
			Subprotocols: []string{bearerProtocol},
		},
	}
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// Run delivers broadcasts until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.send(ctx, msg)
		}
	}
}

func (h *Hub) send(ctx context.Context, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Warn(ctx, "Dropping websocket client", "error", err)
			conn.Close()
			delete(h.connections, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		conn.Close()
		delete(h.connections, conn)
	}
}

// Broadcast queues msg for every client. It never blocks; messages are dropped when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn(context.Background(), "Websocket broadcast queue full, dropping message", "type", msg.Type)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// HandleWebSocket upgrades an HTTP connection to WebSocket
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorWithErr(r.Context(), "Error upgrading to WebSocket", err)
		return
	}

	h.mu.Lock()
	h.connections[ws] = struct{}{}
	h.mu.Unlock()

	// Reads keep the connection alive and notice when the client goes away.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.connections, ws)
			h.mu.Unlock()
			ws.Close()
		}()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
