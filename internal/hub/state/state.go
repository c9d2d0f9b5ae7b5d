// Package state holds the hub's in-memory view of rooms, agents, and message
// logs, backed by the durable store. Writes persist first; memory is only
// mutated after the store accepts the row, so a store failure leaves the
// in-memory view unchanged.
package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/hub/models"
	"github.com/agenthub/agenthub/internal/hub/store"
)

// roomState is the per-room slice of hub state. Each room has its own lock so
// activity in one room never blocks another.
type roomState struct {
	mu       sync.Mutex
	room     *models.Room
	agents   map[string]*models.Agent // keyed by agent id
	messages []*models.Message        // append-only, chronological
}

// State is the hub's authoritative in-memory view, hydrated from the store at
// boot. Reads hand out agent copies; the shared structs never leave this
// package.
type State struct {
	store  store.Store
	logger *logger.Logger

	mu     sync.RWMutex
	rooms  map[string]*roomState
	agents map[string]*models.Agent // registry across rooms, keyed by id

	// agentMu guards the mutable fields of registered Agent structs
	// (Status, LastActive, Connected). Innermost lock; never held while
	// taking mu or a room mutex.
	agentMu sync.RWMutex
}

// New creates an empty State over the given store.
func New(st store.Store, log *logger.Logger) *State {
	return &State{
		store:  st,
		logger: log,
		rooms:  make(map[string]*roomState),
		agents: make(map[string]*models.Agent),
	}
}

// Hydrate loads all active rooms, their agents, and their message logs from
// the store. Ephemeral file-change messages are never persisted, so logs come
// back without them.
func (s *State) Hydrate(ctx context.Context) error {
	rooms, err := s.store.ListActiveRooms(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range rooms {
		rs := &roomState{
			room:   room,
			agents: make(map[string]*models.Agent),
		}

		agents, err := s.store.ListAgentsByRoom(ctx, room.Name)
		if err != nil {
			return err
		}
		for _, agent := range agents {
			// Offline rows belong to agents that left; they stay durable
			// for history but are not part of the roster.
			if agent.Status == models.AgentStatusOffline {
				continue
			}
			rs.agents[agent.ID] = agent
			s.agents[agent.ID] = agent
		}

		messages, err := s.store.ListMessages(ctx, room.Name, nil, 0)
		if err != nil {
			return err
		}
		rs.messages = messages

		s.rooms[room.Name] = rs
		s.logger.Debug("Hydrated room",
			zap.String("room", room.Name),
			zap.Int("agents", len(agents)),
			zap.Int("messages", len(messages)))
	}

	s.logger.Info("State hydrated",
		zap.Int("rooms", len(rooms)),
		zap.Int("agents", len(s.agents)))
	return nil
}

// EnsureRoom returns the room with the given name, creating and persisting it
// on first use. The second return reports whether the room was created.
func (s *State) EnsureRoom(ctx context.Context, name string) (*models.Room, bool, error) {
	s.mu.RLock()
	rs, ok := s.rooms[name]
	s.mu.RUnlock()
	if ok {
		return rs.room, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock.
	if rs, ok := s.rooms[name]; ok {
		return rs.room, false, nil
	}

	room := &models.Room{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
		Settings:  map[string]interface{}{},
	}
	if err := s.store.UpsertRoom(ctx, room); err != nil {
		return nil, false, err
	}
	s.rooms[name] = &roomState{
		room:   room,
		agents: make(map[string]*models.Agent),
	}
	s.logger.Info("Room created", zap.String("room", name))
	return room, true, nil
}

// RoomExists reports whether the room is known.
func (s *State) RoomExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[name]
	return ok
}

// Rooms returns all known rooms.
func (s *State) Rooms() []*models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*models.Room, 0, len(s.rooms))
	for _, rs := range s.rooms {
		rooms = append(rooms, rs.room)
	}
	return rooms
}

// RoomNames returns the names of all known rooms.
func (s *State) RoomNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.rooms))
	for name := range s.rooms {
		names = append(names, name)
	}
	return names
}

// UpsertAgent persists the agent and places it in its room. The room must
// already exist.
func (s *State) UpsertAgent(ctx context.Context, agent *models.Agent) error {
	s.mu.RLock()
	rs, ok := s.rooms[agent.Room]
	s.mu.RUnlock()
	if !ok {
		return store.ErrRoomNotFound
	}

	if err := s.store.UpsertAgent(ctx, agent); err != nil {
		return err
	}

	// The registry keeps its own copy; the caller's struct stays private.
	stored := *agent

	// An agent holds at most one room; joining a new one vacates the old
	// roster entry.
	s.mu.Lock()
	if prev, ok := s.agents[agent.ID]; ok && prev.Room != agent.Room {
		if prevRoom := s.rooms[prev.Room]; prevRoom != nil {
			prevRoom.mu.Lock()
			delete(prevRoom.agents, agent.ID)
			prevRoom.mu.Unlock()
		}
	}
	s.agents[agent.ID] = &stored
	s.mu.Unlock()

	rs.mu.Lock()
	rs.agents[agent.ID] = &stored
	rs.mu.Unlock()
	return nil
}

// GetAgent returns a snapshot of the agent with the given id.
func (s *State) GetAgent(id string) (*models.Agent, bool) {
	s.mu.RLock()
	agent, ok := s.agents[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.cloneAgent(agent), true
}

// cloneAgent copies an agent under the field lock. Callers get their own
// struct, so later status or activity updates cannot race their reads.
func (s *State) cloneAgent(agent *models.Agent) *models.Agent {
	s.agentMu.RLock()
	defer s.agentMu.RUnlock()
	clone := *agent
	return &clone
}

// AgentsInRoom returns snapshots of the agents currently tracked in a room.
func (s *State) AgentsInRoom(room string) []*models.Agent {
	s.mu.RLock()
	rs, ok := s.rooms[room]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	agents := make([]*models.Agent, 0, len(rs.agents))
	for _, agent := range rs.agents {
		agents = append(agents, s.cloneAgent(agent))
	}
	return agents
}

// FindAgentByName returns a snapshot of the agent with the given display name
// in a room. Matching is case-sensitive.
func (s *State) FindAgentByName(room, name string) (*models.Agent, bool) {
	s.mu.RLock()
	rs, ok := s.rooms[room]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, agent := range rs.agents {
		if agent.Name == name {
			return s.cloneAgent(agent), true
		}
	}
	return nil, false
}

// SetAgentStatus persists and applies a status change. The agent row is
// retained even when it goes offline, keeping its history addressable.
func (s *State) SetAgentStatus(ctx context.Context, id string, status models.AgentStatus) error {
	s.mu.RLock()
	agent, ok := s.agents[id]
	s.mu.RUnlock()
	if !ok {
		return store.ErrAgentNotFound
	}

	now := time.Now().UTC()
	if err := s.store.UpdateAgentStatus(ctx, id, status, now); err != nil {
		return err
	}

	s.agentMu.Lock()
	agent.Status = status
	agent.LastActive = now
	s.agentMu.Unlock()
	return nil
}

// RemoveAgent takes an agent out of its room's in-memory set. The durable row
// is retained with status offline so the agent's history stays addressable.
func (s *State) RemoveAgent(ctx context.Context, id string) (*models.Agent, error) {
	s.mu.RLock()
	agent, ok := s.agents[id]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrAgentNotFound
	}

	now := time.Now().UTC()
	if err := s.store.UpdateAgentStatus(ctx, id, models.AgentStatusOffline, now); err != nil {
		return nil, err
	}

	s.mu.Lock()
	rs := s.rooms[agent.Room]
	delete(s.agents, id)
	s.mu.Unlock()

	if rs != nil {
		rs.mu.Lock()
		delete(rs.agents, id)
		rs.mu.Unlock()
	}

	s.agentMu.Lock()
	agent.Status = models.AgentStatusOffline
	agent.LastActive = now
	agent.Connected = false
	removed := *agent
	s.agentMu.Unlock()
	return &removed, nil
}

// SetConnected updates the in-memory connected flag for an agent. The flag is
// a gateway-derived view and is never persisted.
func (s *State) SetConnected(id string, connected bool) {
	s.mu.RLock()
	agent, ok := s.agents[id]
	s.mu.RUnlock()
	if ok {
		s.agentMu.Lock()
		agent.Connected = connected
		s.agentMu.Unlock()
	}
}

// AppendMessage appends a message to its room's log. Persistent message types
// hit the store first; ephemeral file-change messages live only in memory.
// The sending agent's last-active timestamp advances with the message.
func (s *State) AppendMessage(ctx context.Context, msg *models.Message) error {
	s.mu.RLock()
	rs, ok := s.rooms[msg.Room]
	s.mu.RUnlock()
	if !ok {
		return store.ErrRoomNotFound
	}

	if msg.Type != models.MessageTypeFileChange {
		if err := s.store.InsertMessage(ctx, msg); err != nil {
			return err
		}
	}

	rs.mu.Lock()
	rs.messages = append(rs.messages, msg)
	if msg.AgentID != "" {
		if agent, ok := rs.agents[msg.AgentID]; ok {
			s.agentMu.Lock()
			agent.LastActive = msg.Timestamp
			s.agentMu.Unlock()
		}
	}
	rs.mu.Unlock()

	if msg.AgentID != "" {
		// Persisting last_active is best-effort; the message itself is already
		// durable.
		if err := s.store.UpdateAgentStatus(ctx, msg.AgentID, s.agentStatus(msg.AgentID), msg.Timestamp); err != nil {
			s.logger.Warn("Failed to persist agent activity",
				zap.String("agent_id", msg.AgentID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *State) agentStatus(id string) models.AgentStatus {
	s.mu.RLock()
	agent, ok := s.agents[id]
	s.mu.RUnlock()
	if !ok {
		return models.AgentStatusActive
	}
	s.agentMu.RLock()
	defer s.agentMu.RUnlock()
	return agent.Status
}

// Messages returns a room's log oldest-first. A non-nil since keeps messages
// strictly after that instant; limit > 0 keeps the newest limit entries.
func (s *State) Messages(room string, since *time.Time, limit int) ([]*models.Message, bool) {
	s.mu.RLock()
	rs, ok := s.rooms[room]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	msgs := rs.messages
	if since != nil {
		// The log is chronological; find the first entry after the cutoff.
		idx := len(msgs)
		for i, m := range msgs {
			if m.Timestamp.After(*since) {
				idx = i
				break
			}
		}
		msgs = msgs[idx:]
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]*models.Message, len(msgs))
	copy(out, msgs)
	return out, true
}
