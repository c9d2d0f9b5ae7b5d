package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/common/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Agents connect from arbitrary local processes.
		return true
	},
}

// Handler upgrades HTTP requests into push sessions.
type Handler struct {
	hub    *Hub
	logger *logger.Logger
}

// NewHandler creates the push transport handler.
func NewHandler(hub *Hub, log *logger.Logger) *Handler {
	return &Handler{hub: hub, logger: log}
}

// RegisterRoutes mounts the push endpoint on the router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws", h.serve)
}

// serve upgrades the connection and starts the session pumps.
func (h *Handler) serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := NewClient(uuid.New().String(), conn, h.hub, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(c.Request.Context())
}
