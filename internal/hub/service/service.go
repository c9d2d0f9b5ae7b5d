// Package service implements the hub's operations: room membership,
// messaging, tasks, agent memory, and stats. Side effects always run in the
// order persist, update memory, publish.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/events"
	"github.com/agenthub/agenthub/internal/events/bus"
	"github.com/agenthub/agenthub/internal/hub/mentions"
	"github.com/agenthub/agenthub/internal/hub/models"
	"github.com/agenthub/agenthub/internal/hub/notifier"
	"github.com/agenthub/agenthub/internal/hub/state"
	"github.com/agenthub/agenthub/internal/hub/store"
)

// DefaultHistoryLimit is the number of messages history returns when the
// caller does not specify a limit.
const DefaultHistoryLimit = 100

// ErrValidation marks caller errors: missing fields and unknown enum values.
var ErrValidation = errors.New("validation failed")

// Service coordinates hub state, persistence, notifications, and events.
type Service struct {
	state     *state.State
	store     store.Store
	notifier  *notifier.Notifier
	eventBus  bus.EventBus
	logger    *logger.Logger
	sharedDir string

	// roomSends serializes log append and publish per room, so the order
	// subscribers receive message events matches the room log.
	sendMu    sync.Mutex
	roomSends map[string]*sync.Mutex
}

// New creates a Service.
func New(st *state.State, repo store.Store, n *notifier.Notifier, eventBus bus.EventBus, sharedDir string, log *logger.Logger) *Service {
	return &Service{
		state:     st,
		store:     repo,
		notifier:  n,
		eventBus:  eventBus,
		logger:    log,
		sharedDir: sharedDir,
		roomSends: make(map[string]*sync.Mutex),
	}
}

// roomSendLock returns the mutex serializing sends into a room.
func (s *Service) roomSendLock(room string) *sync.Mutex {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	lock, ok := s.roomSends[room]
	if !ok {
		lock = &sync.Mutex{}
		s.roomSends[room] = lock
	}
	return lock
}

// JoinResult is the response to a join: the room snapshot and its roster.
type JoinResult struct {
	Room   *models.Room    `json:"room"`
	Agents []*models.Agent `json:"agents"`
}

// JoinRoom places an agent in a room, creating the room on first use.
// Re-joining the same room with the same id refreshes the agent without a
// second join announcement.
func (s *Service) JoinRoom(ctx context.Context, roomName, agentID, agentName string, capabilities map[string]interface{}) (*JoinResult, error) {
	if roomName == "" || agentID == "" || agentName == "" {
		return nil, fmt.Errorf("%w: room, agentId, and agentName are required", ErrValidation)
	}

	room, _, err := s.state.EnsureRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}

	existing, known := s.state.GetAgent(agentID)
	rejoining := known && existing.Room == roomName

	now := time.Now().UTC()
	agent := &models.Agent{
		ID:           agentID,
		Name:         agentName,
		Room:         roomName,
		Capabilities: capabilities,
		JoinedAt:     now,
		LastActive:   now,
		Status:       models.AgentStatusActive,
	}
	if rejoining {
		agent.JoinedAt = existing.JoinedAt
	}
	if err := s.state.UpsertAgent(ctx, agent); err != nil {
		return nil, err
	}

	if !rejoining {
		if err := s.appendSystemMessage(ctx, roomName, fmt.Sprintf("%s joined", agentName)); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Agent joined room",
		zap.String("room", roomName),
		zap.String("agent_id", agentID),
		zap.String("agent_name", agentName))

	return &JoinResult{Room: room, Agents: s.state.AgentsInRoom(roomName)}, nil
}

// LeaveRoom removes an agent from its room and announces the departure. The
// durable agent row is kept with status offline.
func (s *Service) LeaveRoom(ctx context.Context, agentID string) error {
	agent, err := s.state.RemoveAgent(ctx, agentID)
	if err != nil {
		return err
	}

	if err := s.appendSystemMessage(ctx, agent.Room, fmt.Sprintf("%s left", agent.Name)); err != nil {
		return err
	}

	s.logger.Info("Agent left room",
		zap.String("room", agent.Room),
		zap.String("agent_id", agentID),
		zap.String("agent_name", agent.Name))
	return nil
}

// SendResult is the response to a send.
type SendResult struct {
	MessageID string   `json:"messageId"`
	Mentions  []string `json:"mentions"`
}

// SendMessage appends a chat message to the sender's current room, derives
// notifications from its mentions, and publishes a message event.
func (s *Service) SendMessage(ctx context.Context, agentID, content string, metadata map[string]interface{}) (*SendResult, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	agent, ok := s.state.GetAgent(agentID)
	if !ok {
		return nil, store.ErrAgentNotFound
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		Room:      agent.Room,
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Content:   content,
		Type:      models.MessageTypeMessage,
		Mentions:  mentions.Extract(content),
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
	lock := s.roomSendLock(msg.Room)
	lock.Lock()
	defer lock.Unlock()

	if err := s.state.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	if _, err := s.notifier.Process(ctx, msg); err != nil {
		// The message is durable; notification persistence failing must not
		// unwind the send.
		s.logger.Error("Failed to create notifications",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}

	s.publishMessage(ctx, msg)
	return &SendResult{MessageID: msg.ID, Mentions: msg.Mentions}, nil
}

// Broadcast appends a broadcast message to a room. The room must exist.
func (s *Service) Broadcast(ctx context.Context, roomName, content, from string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if !s.state.RoomExists(roomName) {
		return nil, store.ErrRoomNotFound
	}
	if from == "" {
		from = models.SystemAgentName
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		Room:      roomName,
		AgentName: from,
		Content:   fmt.Sprintf("[%s] %s", from, content),
		Type:      models.MessageTypeBroadcast,
		Mentions:  []string{},
		Timestamp: time.Now().UTC(),
	}

	lock := s.roomSendLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	if err := s.state.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.publishMessage(ctx, msg)
	return msg, nil
}

// History returns a room's most recent messages in chronological order.
// limit < 0 falls back to the default; limit == 0 returns nothing.
func (s *Service) History(ctx context.Context, room string, since *time.Time, limit int) ([]*models.Message, error) {
	if limit < 0 {
		limit = DefaultHistoryLimit
	}
	if limit == 0 {
		if !s.state.RoomExists(room) {
			return nil, store.ErrRoomNotFound
		}
		return []*models.Message{}, nil
	}
	msgs, ok := s.state.Messages(room, since, limit)
	if !ok {
		return nil, store.ErrRoomNotFound
	}
	return msgs, nil
}

// RoomInfo is one entry of the room listing.
type RoomInfo struct {
	Name       string    `json:"name"`
	AgentCount int       `json:"agentCount"`
	Agents     []string  `json:"agents"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListRooms summarizes all rooms with their current rosters.
func (s *Service) ListRooms(ctx context.Context) []*RoomInfo {
	rooms := s.state.Rooms()
	infos := make([]*RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		agents := s.state.AgentsInRoom(room.Name)
		names := make([]string, 0, len(agents))
		for _, agent := range agents {
			names = append(names, agent.Name)
		}
		infos = append(infos, &RoomInfo{
			Name:       room.Name,
			AgentCount: len(agents),
			Agents:     names,
			CreatedAt:  room.CreatedAt,
		})
	}
	return infos
}

// ListAgents returns the agents currently in a room.
func (s *Service) ListAgents(ctx context.Context, room string) ([]*models.Agent, error) {
	if !s.state.RoomExists(room) {
		return nil, store.ErrRoomNotFound
	}
	return s.state.AgentsInRoom(room), nil
}

// appendSystemMessage appends and publishes a system message in a room.
func (s *Service) appendSystemMessage(ctx context.Context, room, content string) error {
	msg := &models.Message{
		ID:        uuid.New().String(),
		Room:      room,
		AgentName: models.SystemAgentName,
		Content:   content,
		Type:      models.MessageTypeSystem,
		Mentions:  []string{},
		Timestamp: time.Now().UTC(),
	}

	lock := s.roomSendLock(room)
	lock.Lock()
	defer lock.Unlock()

	if err := s.state.AppendMessage(ctx, msg); err != nil {
		return err
	}
	s.publishMessage(ctx, msg)
	return nil
}

// publishMessage emits a message event on the room's subject. Publish
// failures are logged, never surfaced: the message is already durable.
func (s *Service) publishMessage(ctx context.Context, msg *models.Message) {
	event := bus.NewEvent(events.MessageCreated, "api", msg)
	if err := s.eventBus.Publish(ctx, events.RoomMessageSubject(msg.Room), event); err != nil {
		s.logger.Warn("Failed to publish message event",
			zap.String("room", msg.Room),
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
}
