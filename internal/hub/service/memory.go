package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub/internal/hub/models"
)

// defaultMemoryType is applied when a stored entry carries no type.
const defaultMemoryType = "note"

// StoreMemoryInput carries the fields of a memory write.
type StoreMemoryInput struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
	ExpiresIn int64  `json:"expiresIn"` // seconds; 0 means never
}

// StoreMemory persists a per-agent key/value entry, replacing any prior value
// for the same key.
func (s *Service) StoreMemory(ctx context.Context, agentID string, in StoreMemoryInput) (*models.MemoryEntry, error) {
	if agentID == "" || in.Key == "" {
		return nil, fmt.Errorf("%w: agentId and key are required", ErrValidation)
	}

	entryType := in.Type
	if entryType == "" {
		entryType = defaultMemoryType
	}

	room := ""
	if agent, ok := s.state.GetAgent(agentID); ok {
		room = agent.Room
	}

	now := time.Now().UTC()
	entry := &models.MemoryEntry{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Room:      room,
		Key:       in.Key,
		Value:     in.Value,
		Type:      entryType,
		CreatedAt: now,
	}
	if in.ExpiresIn > 0 {
		expires := now.Add(time.Duration(in.ExpiresIn) * time.Second)
		entry.ExpiresAt = &expires
	}

	if err := s.store.UpsertMemory(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetMemory returns an agent's unexpired entries newest-first, optionally
// narrowed to a single key or an entry type.
func (s *Service) GetMemory(ctx context.Context, agentID, key, entryType string) ([]*models.MemoryEntry, error) {
	now := time.Now().UTC()
	if key != "" {
		entry, err := s.store.GetMemory(ctx, agentID, key, now)
		if err != nil {
			return nil, err
		}
		if entry == nil || (entryType != "" && entry.Type != entryType) {
			return []*models.MemoryEntry{}, nil
		}
		return []*models.MemoryEntry{entry}, nil
	}

	entries, err := s.store.ListMemory(ctx, agentID, now)
	if err != nil {
		return nil, err
	}
	if entryType == "" {
		return entries, nil
	}
	filtered := make([]*models.MemoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Type == entryType {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}
