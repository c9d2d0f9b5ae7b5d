package state

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/hub/models"
	"github.com/agenthub/agenthub/internal/hub/store"
)

func createTestState(t *testing.T) (*State, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return New(st, log), st
}

func newTestAgent(room string) *models.Agent {
	now := time.Now().UTC()
	return &models.Agent{
		ID:         uuid.New().String(),
		Name:       "alice",
		Room:       room,
		JoinedAt:   now,
		LastActive: now,
		Status:     models.AgentStatusActive,
	}
}

func TestState_EnsureRoom(t *testing.T) {
	s, _ := createTestState(t)
	ctx := context.Background()

	room, created, err := s.EnsureRoom(ctx, "dev")
	if err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}
	if !created {
		t.Error("expected first EnsureRoom to create")
	}
	if room.Name != "dev" || !room.IsActive {
		t.Errorf("unexpected room: %+v", room)
	}

	_, created, err = s.EnsureRoom(ctx, "dev")
	if err != nil {
		t.Fatalf("failed to re-ensure room: %v", err)
	}
	if created {
		t.Error("expected second EnsureRoom to be a no-op")
	}
	if len(s.Rooms()) != 1 {
		t.Errorf("expected 1 room, got %d", len(s.Rooms()))
	}
}

func TestState_AgentLifecycle(t *testing.T) {
	s, _ := createTestState(t)
	ctx := context.Background()

	if _, _, err := s.EnsureRoom(ctx, "dev"); err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}

	agent := newTestAgent("dev")
	if err := s.UpsertAgent(ctx, agent); err != nil {
		t.Fatalf("failed to upsert agent: %v", err)
	}

	got, ok := s.GetAgent(agent.ID)
	if !ok || got.Name != "alice" {
		t.Fatalf("expected agent alice, got %+v ok=%v", got, ok)
	}
	if found, ok := s.FindAgentByName("dev", "alice"); !ok || found.ID != agent.ID {
		t.Fatalf("expected to find alice by name")
	}
	// Case-sensitive lookup.
	if _, ok := s.FindAgentByName("dev", "Alice"); ok {
		t.Error("expected name lookup to be case-sensitive")
	}

	if err := s.SetAgentStatus(ctx, agent.ID, models.AgentStatusOffline); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}
	got, _ = s.GetAgent(agent.ID)
	if got.Status != models.AgentStatusOffline {
		t.Errorf("expected offline, got %s", got.Status)
	}
	// The agent row survives going offline.
	if len(s.AgentsInRoom("dev")) != 1 {
		t.Error("expected agent to remain in room after going offline")
	}

	if err := s.SetAgentStatus(ctx, "missing", models.AgentStatusAway); !errors.Is(err, store.ErrAgentNotFound) {
		t.Errorf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestState_AgentSnapshots(t *testing.T) {
	s, _ := createTestState(t)
	ctx := context.Background()

	if _, _, err := s.EnsureRoom(ctx, "dev"); err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}
	agent := newTestAgent("dev")
	if err := s.UpsertAgent(ctx, agent); err != nil {
		t.Fatalf("failed to upsert agent: %v", err)
	}

	// Reads hand out copies; mutating one must not leak into hub state.
	got, _ := s.GetAgent(agent.ID)
	got.Name = "mallory"
	if again, _ := s.GetAgent(agent.ID); again.Name != "alice" {
		t.Errorf("expected registry to be isolated from caller mutation, got %q", again.Name)
	}

	roster := s.AgentsInRoom("dev")
	if len(roster) != 1 {
		t.Fatalf("expected 1 agent in room, got %d", len(roster))
	}
	roster[0].Status = models.AgentStatusAway
	if fresh, _ := s.GetAgent(agent.ID); fresh.Status != models.AgentStatusActive {
		t.Errorf("expected roster copies to be isolated, got %s", fresh.Status)
	}

	// The caller's struct stays private after the upsert too.
	agent.Connected = true
	if fresh, _ := s.GetAgent(agent.ID); fresh.Connected {
		t.Error("expected upsert to store its own copy")
	}
}

func TestState_ConcurrentActivity(t *testing.T) {
	s, _ := createTestState(t)
	ctx := context.Background()

	if _, _, err := s.EnsureRoom(ctx, "dev"); err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}
	agent := newTestAgent("dev")
	if err := s.UpsertAgent(ctx, agent); err != nil {
		t.Fatalf("failed to upsert agent: %v", err)
	}

	// One sender, one roster reader, one connection toggler; the shared
	// agent fields are lock-guarded, so this holds up under the race
	// detector.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			msg := &models.Message{
				ID:        uuid.New().String(),
				Room:      "dev",
				AgentID:   agent.ID,
				AgentName: "alice",
				Content:   "tick",
				Type:      models.MessageTypeMessage,
				Mentions:  []string{},
				Timestamp: time.Now().UTC(),
			}
			if err := s.AppendMessage(ctx, msg); err != nil {
				t.Errorf("append failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			for _, a := range s.AgentsInRoom("dev") {
				_ = a.LastActive
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.SetConnected(agent.ID, i%2 == 0)
		}
	}()
	wg.Wait()
}

func TestState_AppendMessage(t *testing.T) {
	s, _ := createTestState(t)
	ctx := context.Background()

	if _, _, err := s.EnsureRoom(ctx, "dev"); err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}
	agent := newTestAgent("dev")
	if err := s.UpsertAgent(ctx, agent); err != nil {
		t.Fatalf("failed to upsert agent: %v", err)
	}

	before := agent.LastActive
	msg := &models.Message{
		ID:        uuid.New().String(),
		Room:      "dev",
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Content:   "hello",
		Type:      models.MessageTypeMessage,
		Mentions:  []string{},
		Timestamp: before.Add(time.Second),
	}
	if err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("failed to append message: %v", err)
	}

	msgs, ok := s.Messages("dev", nil, 0)
	if !ok || len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d ok=%v", len(msgs), ok)
	}
	got, _ := s.GetAgent(agent.ID)
	if !got.LastActive.After(before) {
		t.Error("expected message to advance agent last_active")
	}

	if err := s.AppendMessage(ctx, &models.Message{ID: "x", Room: "missing", Type: models.MessageTypeMessage}); !errors.Is(err, store.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestState_MessagesWindow(t *testing.T) {
	s, _ := createTestState(t)
	ctx := context.Background()

	if _, _, err := s.EnsureRoom(ctx, "dev"); err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		msg := &models.Message{
			ID:        uuid.New().String(),
			Room:      "dev",
			AgentName: models.SystemAgentName,
			Content:   string(rune('a' + i)),
			Type:      models.MessageTypeSystem,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("failed to append message %d: %v", i, err)
		}
	}

	msgs, _ := s.Messages("dev", nil, 2)
	if len(msgs) != 2 || msgs[0].Content != "d" || msgs[1].Content != "e" {
		t.Errorf("expected newest 2 chronological, got %d messages", len(msgs))
	}

	since := base.Add(2 * time.Second)
	msgs, _ = s.Messages("dev", &since, 0)
	if len(msgs) != 2 || msgs[0].Content != "d" {
		t.Errorf("expected 2 messages after cutoff, got %d", len(msgs))
	}

	if _, ok := s.Messages("missing", nil, 0); ok {
		t.Error("expected missing room to report not found")
	}
}

func TestState_FileChangeMessagesEphemeral(t *testing.T) {
	s, st := createTestState(t)
	ctx := context.Background()

	if _, _, err := s.EnsureRoom(ctx, "dev"); err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		Room:      "dev",
		AgentName: models.SystemAgentName,
		Content:   "File added: notes.md",
		Type:      models.MessageTypeFileChange,
		Timestamp: time.Now().UTC(),
	}
	if err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("failed to append file-change message: %v", err)
	}

	// Visible in memory.
	msgs, _ := s.Messages("dev", nil, 0)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 in-memory message, got %d", len(msgs))
	}
	// Never persisted.
	persisted, err := st.ListMessages(ctx, "dev", nil, 0)
	if err != nil {
		t.Fatalf("failed to list persisted messages: %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("expected 0 persisted messages, got %d", len(persisted))
	}
}

func TestState_Hydrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	ctx := context.Background()

	// First lifetime: create a room, an agent, and a message.
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	s := New(st, log)
	if _, _, err := s.EnsureRoom(ctx, "dev"); err != nil {
		t.Fatalf("failed to ensure room: %v", err)
	}
	agent := newTestAgent("dev")
	if err := s.UpsertAgent(ctx, agent); err != nil {
		t.Fatalf("failed to upsert agent: %v", err)
	}
	msg := &models.Message{
		ID:        uuid.New().String(),
		Room:      "dev",
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Content:   "persisted",
		Type:      models.MessageTypeMessage,
		Timestamp: time.Now().UTC(),
	}
	if err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("failed to append message: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	// Second lifetime: hydrate from the same database.
	st2, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	t.Cleanup(func() { _ = st2.Close() })
	s2 := New(st2, log)
	if err := s2.Hydrate(ctx); err != nil {
		t.Fatalf("failed to hydrate: %v", err)
	}

	if !s2.RoomExists("dev") {
		t.Fatal("expected room to survive restart")
	}
	if got, ok := s2.GetAgent(agent.ID); !ok || got.Name != "alice" {
		t.Fatalf("expected agent to survive restart, got %+v ok=%v", got, ok)
	}
	msgs, _ := s2.Messages("dev", nil, 0)
	if len(msgs) != 1 || msgs[0].Content != "persisted" {
		t.Fatalf("expected message log to survive restart, got %d messages", len(msgs))
	}
}
