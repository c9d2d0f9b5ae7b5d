package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/agenthub/agenthub/internal/hub/models"
)

// SQLiteStore implements Store backed by a single SQLite database file.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// initializes the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	normalizedPath := normalizeSQLitePath(dbPath)
	if err := ensureSQLiteDir(normalizedPath); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_mode=rwc", normalizedPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close database after schema error: %w", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func ensureSQLiteDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func normalizeSQLitePath(dbPath string) string {
	if dbPath == "" {
		return dbPath
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return dbPath
	}
	return abs
}

// initSchema creates the database tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		name TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		settings TEXT DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		room TEXT NOT NULL,
		capabilities TEXT DEFAULT '{}',
		joined_at TIMESTAMP NOT NULL,
		last_active TIMESTAMP NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		FOREIGN KEY (room) REFERENCES rooms(name)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		room TEXT NOT NULL,
		agent_id TEXT DEFAULT '',
		agent_name TEXT NOT NULL,
		content TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'message',
		mentions TEXT DEFAULT '[]',
		metadata TEXT DEFAULT '{}',
		timestamp TIMESTAMP NOT NULL,
		FOREIGN KEY (room) REFERENCES rooms(name)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		room TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		assignee TEXT DEFAULT '',
		creator TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'todo',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (room) REFERENCES rooms(name)
	);

	CREATE TABLE IF NOT EXISTS agent_memory (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		room TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'fact',
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		UNIQUE(agent_id, key)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		room TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'mention',
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agents_room ON agents(room);
	CREATE INDEX IF NOT EXISTS idx_messages_room_timestamp ON messages(room, timestamp);
	CREATE INDEX IF NOT EXISTS idx_tasks_room ON tasks(room);
	CREATE INDEX IF NOT EXISTS idx_tasks_room_status ON tasks(room, status);
	CREATE INDEX IF NOT EXISTS idx_agent_memory_agent_id ON agent_memory(agent_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_agent_id ON notifications(agent_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Rooms

// UpsertRoom inserts or replaces a room row.
func (s *SQLiteStore) UpsertRoom(ctx context.Context, room *models.Room) error {
	settingsJSON, err := marshalMap(room.Settings)
	if err != nil {
		return fmt.Errorf("failed to serialize room settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rooms (name, created_at, is_active, settings)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET is_active = excluded.is_active, settings = excluded.settings
	`, room.Name, room.CreatedAt, boolToInt(room.IsActive), settingsJSON)
	return err
}

// GetRoom fetches a room by name.
func (s *SQLiteStore) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	var row roomRow
	err := s.db.GetContext(ctx, &row, `
		SELECT name, created_at, is_active, settings FROM rooms WHERE name = ?
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// ListActiveRooms returns all active rooms ordered by creation time.
func (s *SQLiteStore) ListActiveRooms(ctx context.Context) ([]*models.Room, error) {
	var rows []roomRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT name, created_at, is_active, settings
		FROM rooms
		WHERE is_active = 1
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	rooms := make([]*models.Room, 0, len(rows))
	for i := range rows {
		room, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Agents

// UpsertAgent inserts or replaces an agent row keyed by agent id.
func (s *SQLiteStore) UpsertAgent(ctx context.Context, agent *models.Agent) error {
	capsJSON, err := marshalMap(agent.Capabilities)
	if err != nil {
		return fmt.Errorf("failed to serialize agent capabilities: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, name, room, capabilities, joined_at, last_active, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			room = excluded.room,
			capabilities = excluded.capabilities,
			last_active = excluded.last_active,
			status = excluded.status
	`, agent.ID, agent.Name, agent.Room, capsJSON, agent.JoinedAt, agent.LastActive, string(agent.Status))
	return err
}

// GetAgent fetches an agent by id.
func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var row agentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, room, capabilities, joined_at, last_active, status
		FROM agents WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// ListAgentsByRoom returns a room's agents ordered by join time.
func (s *SQLiteStore) ListAgentsByRoom(ctx context.Context, room string) ([]*models.Agent, error) {
	var rows []agentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, room, capabilities, joined_at, last_active, status
		FROM agents
		WHERE room = ?
		ORDER BY joined_at ASC
	`, room)
	if err != nil {
		return nil, err
	}
	agents := make([]*models.Agent, 0, len(rows))
	for i := range rows {
		agent, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

// UpdateAgentStatus updates an agent's status and last-active timestamp.
func (s *SQLiteStore) UpdateAgentStatus(ctx context.Context, id string, status models.AgentStatus, lastActive time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE agents SET status = ?, last_active = ? WHERE id = ?
	`, string(status), lastActive, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// Messages

// InsertMessage appends a message to a room's log.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	mentionsJSON, err := marshalStrings(msg.Mentions)
	if err != nil {
		return fmt.Errorf("failed to serialize mentions: %w", err)
	}
	metadataJSON, err := marshalMap(msg.Metadata)
	if err != nil {
		return fmt.Errorf("failed to serialize message metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, room, agent_id, agent_name, content, type, mentions, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.Room, msg.AgentID, msg.AgentName, msg.Content, string(msg.Type), mentionsJSON, metadataJSON, msg.Timestamp)
	return err
}

// ListMessages returns a room's messages oldest-first. A non-nil since keeps
// only messages strictly after that instant; limit > 0 keeps the newest limit.
func (s *SQLiteStore) ListMessages(ctx context.Context, room string, since *time.Time, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, room, agent_id, agent_name, content, type, mentions, metadata, timestamp
		FROM messages
		WHERE room = ?
	`
	args := []interface{}{room}
	if since != nil {
		query += ` AND timestamp > ?`
		args = append(args, *since)
	}
	// Select newest-first with the limit, then reverse into chronological order.
	query += ` ORDER BY timestamp DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	msgs := make([]*models.Message, len(rows))
	for i := range rows {
		msg, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		msgs[len(rows)-1-i] = msg
	}
	return msgs, nil
}

// Tasks

// InsertTask stores a new task.
func (s *SQLiteStore) InsertTask(ctx context.Context, task *models.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, room, title, description, assignee, creator, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Room, task.Title, task.Description, task.Assignee, task.Creator,
		string(task.Priority), string(task.Status), task.CreatedAt, task.UpdatedAt)
	return err
}

// UpdateTask rewrites a task's mutable fields.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *models.Task) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, assignee = ?, priority = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, task.Title, task.Description, task.Assignee, string(task.Priority), string(task.Status), task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// GetTask fetches a task by id.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, room, title, description, assignee, creator, priority, status, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// ListTasks returns a room's tasks newest-first, optionally filtered by status.
func (s *SQLiteStore) ListTasks(ctx context.Context, room string, status models.TaskStatus) ([]*models.Task, error) {
	query := `
		SELECT id, room, title, description, assignee, creator, priority, status, created_at, updated_at
		FROM tasks
		WHERE room = ?
	`
	args := []interface{}{room}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	tasks := make([]*models.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toModel())
	}
	return tasks, nil
}

// Agent memory

// UpsertMemory stores a memory entry, replacing any prior value for the same
// agent and key.
func (s *SQLiteStore) UpsertMemory(ctx context.Context, entry *models.MemoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_memory (id, agent_id, room, key, value, type, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, key) DO UPDATE SET
			room = excluded.room,
			value = excluded.value,
			type = excluded.type,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, entry.ID, entry.AgentID, entry.Room, entry.Key, entry.Value, entry.Type, entry.CreatedAt, entry.ExpiresAt)
	return err
}

// GetMemory fetches an agent's entry by key, treating expired rows as absent.
func (s *SQLiteStore) GetMemory(ctx context.Context, agentID, key string, now time.Time) (*models.MemoryEntry, error) {
	var row memoryRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, agent_id, room, key, value, type, created_at, expires_at
		FROM agent_memory
		WHERE agent_id = ? AND key = ? AND (expires_at IS NULL OR expires_at >= ?)
	`, agentID, key, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// ListMemory returns an agent's unexpired entries newest-first.
func (s *SQLiteStore) ListMemory(ctx context.Context, agentID string, now time.Time) ([]*models.MemoryEntry, error) {
	var rows []memoryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, agent_id, room, key, value, type, created_at, expires_at
		FROM agent_memory
		WHERE agent_id = ? AND (expires_at IS NULL OR expires_at >= ?)
		ORDER BY created_at DESC
	`, agentID, now)
	if err != nil {
		return nil, err
	}
	entries := make([]*models.MemoryEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toModel())
	}
	return entries, nil
}

// Notifications

// InsertNotification stores a new notification.
func (s *SQLiteStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, agent_id, room, message, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.AgentID, n.Room, n.Message, n.Type, boolToInt(n.IsRead), n.CreatedAt)
	return err
}

// ListNotifications returns an agent's notifications newest-first, capped at limit.
func (s *SQLiteStore) ListNotifications(ctx context.Context, agentID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, agent_id, room, message, type, is_read, created_at
		FROM notifications
		WHERE agent_id = ?
	`
	args := []interface{}{agentID}
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	notifs := make([]*models.Notification, 0, len(rows))
	for i := range rows {
		notifs = append(notifs, rows[i].toModel())
	}
	return notifs, nil
}

// MarkNotificationRead marks a notification read. It reports whether the row
// transitioned from unread; marking an already-read row succeeds with false.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) (bool, error) {
	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM notifications WHERE id = ?`, id); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, ErrNotificationNotFound
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE id = ? AND is_read = 0
	`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Stats returns durable entity counts across all rooms.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM messages`, &stats.Messages},
		{`SELECT COUNT(*) FROM tasks`, &stats.Tasks},
		{`SELECT COUNT(*) FROM notifications`, &stats.Notifications},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// Row types with db tags; composite columns are stored as JSON text.

type roomRow struct {
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	IsActive  int       `db:"is_active"`
	Settings  string    `db:"settings"`
}

func (r *roomRow) toModel() (*models.Room, error) {
	settings, err := unmarshalMap(r.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize room settings: %w", err)
	}
	return &models.Room{
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		IsActive:  r.IsActive == 1,
		Settings:  settings,
	}, nil
}

type agentRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Room         string    `db:"room"`
	Capabilities string    `db:"capabilities"`
	JoinedAt     time.Time `db:"joined_at"`
	LastActive   time.Time `db:"last_active"`
	Status       string    `db:"status"`
}

func (r *agentRow) toModel() (*models.Agent, error) {
	caps, err := unmarshalMap(r.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize agent capabilities: %w", err)
	}
	return &models.Agent{
		ID:           r.ID,
		Name:         r.Name,
		Room:         r.Room,
		Capabilities: caps,
		JoinedAt:     r.JoinedAt,
		LastActive:   r.LastActive,
		Status:       models.AgentStatus(r.Status),
	}, nil
}

type messageRow struct {
	ID        string    `db:"id"`
	Room      string    `db:"room"`
	AgentID   string    `db:"agent_id"`
	AgentName string    `db:"agent_name"`
	Content   string    `db:"content"`
	Type      string    `db:"type"`
	Mentions  string    `db:"mentions"`
	Metadata  string    `db:"metadata"`
	Timestamp time.Time `db:"timestamp"`
}

func (r *messageRow) toModel() (*models.Message, error) {
	var mentions []string
	if r.Mentions != "" {
		if err := json.Unmarshal([]byte(r.Mentions), &mentions); err != nil {
			return nil, fmt.Errorf("failed to deserialize mentions: %w", err)
		}
	}
	if mentions == nil {
		mentions = []string{}
	}
	metadata, err := unmarshalMap(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message metadata: %w", err)
	}
	return &models.Message{
		ID:        r.ID,
		Room:      r.Room,
		AgentID:   r.AgentID,
		AgentName: r.AgentName,
		Content:   r.Content,
		Type:      models.MessageType(r.Type),
		Mentions:  mentions,
		Metadata:  metadata,
		Timestamp: r.Timestamp,
	}, nil
}

type taskRow struct {
	ID          string    `db:"id"`
	Room        string    `db:"room"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Assignee    string    `db:"assignee"`
	Creator     string    `db:"creator"`
	Priority    string    `db:"priority"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *taskRow) toModel() *models.Task {
	return &models.Task{
		ID:          r.ID,
		Room:        r.Room,
		Title:       r.Title,
		Description: r.Description,
		Assignee:    r.Assignee,
		Creator:     r.Creator,
		Priority:    models.TaskPriority(r.Priority),
		Status:      models.TaskStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type memoryRow struct {
	ID        string     `db:"id"`
	AgentID   string     `db:"agent_id"`
	Room      string     `db:"room"`
	Key       string     `db:"key"`
	Value     string     `db:"value"`
	Type      string     `db:"type"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt *time.Time `db:"expires_at"`
}

func (r *memoryRow) toModel() *models.MemoryEntry {
	return &models.MemoryEntry{
		ID:        r.ID,
		AgentID:   r.AgentID,
		Room:      r.Room,
		Key:       r.Key,
		Value:     r.Value,
		Type:      r.Type,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

type notificationRow struct {
	ID        string    `db:"id"`
	AgentID   string    `db:"agent_id"`
	Room      string    `db:"room"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	IsRead    int       `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *notificationRow) toModel() *models.Notification {
	return &models.Notification{
		ID:        r.ID,
		AgentID:   r.AgentID,
		Room:      r.Room,
		Message:   r.Message,
		Type:      r.Type,
		IsRead:    r.IsRead == 1,
		CreatedAt: r.CreatedAt,
	}
}

func marshalMap(m map[string]interface{}) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalMap(data string) (map[string]interface{}, error) {
	if data == "" || data == "{}" {
		return map[string]interface{}{}, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
