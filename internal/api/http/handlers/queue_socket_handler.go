package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/chamado-service/internal/realtime"
)

// QueueSocketHandler streams queue_changed messages to technicians.
type QueueSocketHandler struct {
	ctx    context.Context
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewQueueSocketHandler binds the handler to the hub; ctx bounds hub calls
// on shutdown.
func NewQueueSocketHandler(ctx context.Context, hub *realtime.Hub, logger *zap.Logger) *QueueSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueSocketHandler{ctx: ctx, hub: hub, logger: logger}
}

// Upgrade rejects plain HTTP requests on the websocket route.
func (h *QueueSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Serve GET /ws/queue.
func (h *QueueSocketHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.hub.Register(h.ctx, conn)
		defer h.hub.Unregister(h.ctx, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("queue socket closed", zap.Error(err))
				}
				return
			}
		}
	})
}
