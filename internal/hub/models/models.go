// Package models defines the core entities managed by the hub.
package models

import "time"

// AgentStatus represents the presence state of an agent.
type AgentStatus string

const (
	AgentStatusActive  AgentStatus = "active"
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusBusy    AgentStatus = "busy"
	AgentStatusAway    AgentStatus = "away"
	AgentStatusOffline AgentStatus = "offline"
)

// MessageType classifies entries in a room's message log.
type MessageType string

const (
	MessageTypeMessage    MessageType = "message"
	MessageTypeSystem     MessageType = "system"
	MessageTypeBroadcast  MessageType = "broadcast"
	MessageTypeFileChange MessageType = "file_change"
)

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// ValidPriority reports whether p is a recognized priority value.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// ValidStatus reports whether s is a recognized task status value.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone, TaskStatusBlocked:
		return true
	}
	return false
}

// FileAction classifies a shared-filesystem change.
type FileAction string

const (
	FileActionAdd    FileAction = "add"
	FileActionChange FileAction = "change"
	FileActionDelete FileAction = "delete"
)

// SystemAgentName is the agent name attached to system and file-change messages.
const SystemAgentName = "System"

// Room is a named channel scoping messaging, tasks, and push fanout.
// The name doubles as the identifier; rooms are created on first join and
// never deleted.
type Room struct {
	Name      string                 `json:"name"`
	CreatedAt time.Time              `json:"created_at"`
	IsActive  bool                   `json:"is_active"`
	Settings  map[string]interface{} `json:"settings,omitempty"`
}

// Agent is an external participant identified by an opaque id and addressable
// by display name. Room is a cached back-reference; the room's agent set is
// the canonical membership source.
type Agent struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Room         string                 `json:"room"`
	Capabilities map[string]interface{} `json:"capabilities,omitempty"`
	JoinedAt     time.Time              `json:"joined_at"`
	LastActive   time.Time              `json:"last_active"`
	Status       AgentStatus            `json:"status"`
	// Connected mirrors whether a push session is currently bound to this
	// agent. It is a derived view owned by the gateway, never persisted.
	Connected bool `json:"connected"`
}

// Message is an entry in a room's append-only log. AgentID is empty for
// system, broadcast, and file-change messages.
type Message struct {
	ID        string                 `json:"id"`
	Room      string                 `json:"room"`
	AgentID   string                 `json:"agent_id,omitempty"`
	AgentName string                 `json:"agent_name"`
	Content   string                 `json:"content"`
	Type      MessageType            `json:"type"`
	Mentions  []string               `json:"mentions"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Task is a unit of work tracked per room. Assignee and creator are agent
// display names, not ids.
type Task struct {
	ID          string       `json:"id"`
	Room        string       `json:"room"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Assignee    string       `json:"assignee,omitempty"`
	Creator     string       `json:"creator"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MemoryEntry is a per-agent key/value record, optionally expiring.
// An entry is logically absent once now > ExpiresAt.
type MemoryEntry struct {
	ID        string     `json:"id"`
	AgentID   string     `json:"agent_id"`
	Room      string     `json:"room"`
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	Type      string     `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the entry is logically absent at the given instant.
func (m *MemoryEntry) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// Notification is a per-recipient record created as a side effect of a
// mention. Lifecycle is unread -> read; rows are never deleted.
type Notification struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Room      string    `json:"room"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationTypeMention is the default notification type.
const NotificationTypeMention = "mention"
