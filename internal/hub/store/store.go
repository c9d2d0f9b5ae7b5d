// Package store provides durable persistence for hub state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agenthub/agenthub/internal/hub/models"
)

var (
	// ErrRoomNotFound is returned when a room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrAgentNotFound is returned when an agent does not exist.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrTaskNotFound is returned when a task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotificationNotFound is returned when a notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
)

// Stats summarizes durable entity counts. Room and agent totals come from
// live state, which is why they are absent here.
type Stats struct {
	Messages      int `json:"messages"`
	Tasks         int `json:"tasks"`
	Notifications int `json:"notifications"`
}

// Store is the persistence interface for hub entities. All writes are durable
// before the caller observes success; reads reflect the last committed write.
type Store interface {
	// Rooms
	UpsertRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, name string) (*models.Room, error)
	ListActiveRooms(ctx context.Context) ([]*models.Room, error)

	// Agents
	UpsertAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	ListAgentsByRoom(ctx context.Context, room string) ([]*models.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status models.AgentStatus, lastActive time.Time) error

	// Messages
	InsertMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns messages for a room oldest-first. A non-nil since
	// restricts to messages strictly after that instant; limit > 0 keeps the
	// newest limit entries.
	ListMessages(ctx context.Context, room string, since *time.Time, limit int) ([]*models.Message, error)

	// Tasks
	InsertTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	// ListTasks returns a room's tasks newest-first, optionally filtered by
	// status ("" matches all).
	ListTasks(ctx context.Context, room string, status models.TaskStatus) ([]*models.Task, error)

	// Agent memory
	UpsertMemory(ctx context.Context, entry *models.MemoryEntry) error
	GetMemory(ctx context.Context, agentID, key string, now time.Time) (*models.MemoryEntry, error)
	// ListMemory returns an agent's unexpired entries newest-first.
	ListMemory(ctx context.Context, agentID string, now time.Time) ([]*models.MemoryEntry, error)

	// Notifications
	InsertNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications returns an agent's notifications newest-first,
	// capped at limit.
	ListNotifications(ctx context.Context, agentID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	// MarkNotificationRead marks a notification read and reports whether the
	// row transitioned from unread.
	MarkNotificationRead(ctx context.Context, id string) (bool, error)

	Stats(ctx context.Context) (*Stats, error)

	Close() error
}
