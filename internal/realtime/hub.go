package realtime

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans broadcast messages out to every registered connection. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	register   chan Conn
	unregister chan Conn
	broadcast  chan []byte
	clients    map[Conn]struct{}
	logger     *zap.Logger
}

// NewHub builds an idle hub; call Run to start it.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[Conn]struct{}),
		logger:     logger,
	}
}

// Register adds a connection. It blocks until the hub accepts it or ctx ends.
func (h *Hub) Register(ctx context.Context, conn Conn) {
	select {
	case h.register <- conn:
	case <-ctx.Done():
	}
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(ctx context.Context, conn Conn) {
	select {
	case h.unregister <- conn:
	case <-ctx.Done():
	}
}

// Broadcast queues a message for every client. Messages are dropped when the
// buffer is full.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("realtime broadcast dropped", zap.Int("bytes", len(message)))
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for conn := range h.clients {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			h.logger.Debug("realtime client registered", zap.Int("clients", len(h.clients)))
		case conn := <-h.unregister:
			h.drop(conn)
		case message := <-h.broadcast:
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Debug("realtime write failed", zap.Error(err))
					h.drop(conn)
				}
			}
		}
	}
}

func (h *Hub) drop(conn Conn) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	_ = conn.Close()
}
