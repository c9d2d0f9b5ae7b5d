// Package handlers exposes the hub's request/response API over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/hub/service"
	"github.com/agenthub/agenthub/internal/hub/store"
	"github.com/agenthub/agenthub/internal/sharedfs"
)

// Handlers binds the API routes to the service layer.
type Handlers struct {
	service *service.Service
	files   *sharedfs.FS
	logger  *logger.Logger
}

// New creates the API handlers.
func New(svc *service.Service, files *sharedfs.FS, log *logger.Logger) *Handlers {
	return &Handlers{service: svc, files: files, logger: log}
}

// RegisterRoutes mounts all API endpoints on the router.
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")

	api.POST("/join/:room", h.joinRoom)
	api.POST("/leave/:agentId", h.leaveRoom)
	api.POST("/send", h.sendMessage)
	api.GET("/messages/:room", h.getMessages)
	api.GET("/rooms", h.listRooms)
	api.GET("/agents/:room", h.listAgents)

	api.POST("/tasks", h.createTask)
	api.GET("/tasks/:room", h.listTasks)
	api.POST("/tasks/:id/update", h.updateTask)

	api.POST("/broadcast/:room", h.broadcast)

	api.POST("/memory/:agentId", h.storeMemory)
	api.GET("/memory/:agentId", h.getMemory)

	api.GET("/notifications/:agentId", h.getNotifications)
	api.POST("/notifications/:id/read", h.markNotificationRead)

	api.GET("/stats", h.stats)

	api.GET("/files/*path", h.readFile)
	api.POST("/files/*path", h.writeFile)
	api.DELETE("/files/*path", h.deleteFile)
}

// respondError maps service errors to the API failure shape.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrRoomNotFound),
		errors.Is(err, store.ErrAgentNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrNotificationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, sharedfs.ErrPathEscapesRoot):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

type joinRequest struct {
	AgentID      string                 `json:"agentId" binding:"required"`
	AgentName    string                 `json:"agentName" binding:"required"`
	Capabilities map[string]interface{} `json:"capabilities"`
}

func (h *Handlers) joinRoom(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	result, err := h.service.JoinRoom(c.Request.Context(), c.Param("room"), req.AgentID, req.AgentName, req.Capabilities)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": result.Room, "agents": result.Agents})
}

func (h *Handlers) leaveRoom(c *gin.Context) {
	if err := h.service.LeaveRoom(c.Request.Context(), c.Param("agentId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type sendRequest struct {
	AgentID  string                 `json:"agentId" binding:"required"`
	Content  string                 `json:"content" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *Handlers) sendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	result, err := h.service.SendMessage(c.Request.Context(), req.AgentID, req.Content, req.Metadata)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": result.MessageID, "mentions": result.Mentions})
}

func (h *Handlers) getMessages(c *gin.Context) {
	limit := service.DefaultHistoryLimit
	if raw, ok := c.GetQuery("limit"); ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			limit = parsed
		}
	}

	var since *time.Time
	if raw, ok := c.GetQuery("since"); ok && raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "since must be RFC3339"})
			return
		}
		since = &parsed
	}

	msgs, err := h.service.History(c.Request.Context(), c.Param("room"), since, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.service.ListRooms(c.Request.Context())})
}

func (h *Handlers) listAgents(c *gin.Context) {
	agents, err := h.service.ListAgents(c.Request.Context(), c.Param("room"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handlers) createTask(c *gin.Context) {
	var req service.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	task, err := h.service.CreateTask(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

func (h *Handlers) listTasks(c *gin.Context) {
	tasks, err := h.service.ListTasks(c.Request.Context(), c.Param("room"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handlers) updateTask(c *gin.Context) {
	var req service.UpdateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	task, err := h.service.UpdateTask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

type broadcastRequest struct {
	Content string `json:"content" binding:"required"`
	From    string `json:"from"`
}

func (h *Handlers) broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	msg, err := h.service.Broadcast(c.Request.Context(), c.Param("room"), req.Content, req.From)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (h *Handlers) storeMemory(c *gin.Context) {
	var req service.StoreMemoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	entry, err := h.service.StoreMemory(c.Request.Context(), c.Param("agentId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "memory": entry})
}

func (h *Handlers) getMemory(c *gin.Context) {
	entries, err := h.service.GetMemory(c.Request.Context(), c.Param("agentId"), c.Query("key"), c.Query("type"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memories": entries})
}

func (h *Handlers) getNotifications(c *gin.Context) {
	unreadOnly := c.Query("unreadOnly") == "true"
	notifs, err := h.service.Notifications(c.Request.Context(), c.Param("agentId"), unreadOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifs})
}

func (h *Handlers) markNotificationRead(c *gin.Context) {
	updated, err := h.service.MarkNotificationRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

func (h *Handlers) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
