package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/events"
	"github.com/agenthub/agenthub/internal/events/bus"
	"github.com/agenthub/agenthub/internal/hub/models"
	"github.com/agenthub/agenthub/internal/sharedfs"
)

// StartFileFanout subscribes the service to shared-filesystem events. Each
// change becomes one synthetic file-change message per active room, appended
// to the room log (in memory only) and published on the room's subject.
func (s *Service) StartFileFanout() (bus.Subscription, error) {
	return s.eventBus.Subscribe(events.SharedFSSubject, func(ctx context.Context, event *bus.Event) error {
		change, err := decodeChange(event.Data)
		if err != nil {
			s.logger.Warn("Dropping malformed file change event", zap.Error(err))
			return nil
		}
		s.fanoutFileChange(ctx, change)
		return nil
	})
}

func (s *Service) fanoutFileChange(ctx context.Context, change *sharedfs.Change) {
	content := fileChangeContent(change)
	for _, room := range s.state.RoomNames() {
		msg := &models.Message{
			ID:        uuid.New().String(),
			Room:      room,
			AgentName: models.SystemAgentName,
			Content:   content,
			Type:      models.MessageTypeFileChange,
			Mentions:  []string{},
			Metadata: map[string]interface{}{
				"filePath": change.Path,
				"action":   string(change.Action),
			},
			Timestamp: time.Now().UTC(),
		}

		lock := s.roomSendLock(room)
		lock.Lock()
		if err := s.state.AppendMessage(ctx, msg); err != nil {
			lock.Unlock()
			s.logger.Warn("Failed to append file-change message",
				zap.String("room", room),
				zap.String("path", change.Path),
				zap.Error(err))
			continue
		}
		s.publishMessage(ctx, msg)
		lock.Unlock()
	}
}

func fileChangeContent(change *sharedfs.Change) string {
	switch change.Action {
	case models.FileActionAdd:
		return fmt.Sprintf("File added: %s", change.Path)
	case models.FileActionChange:
		return fmt.Sprintf("File changed: %s", change.Path)
	case models.FileActionDelete:
		return fmt.Sprintf("File deleted: %s", change.Path)
	default:
		return fmt.Sprintf("File %s: %s", change.Action, change.Path)
	}
}

// decodeChange recovers the change payload. In-process delivery carries the
// typed struct; a NATS hop leaves a generic JSON map.
func decodeChange(data interface{}) (*sharedfs.Change, error) {
	if change, ok := data.(*sharedfs.Change); ok {
		return change, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var change sharedfs.Change
	if err := json.Unmarshal(raw, &change); err != nil {
		return nil, err
	}
	if change.Path == "" || change.Action == "" {
		return nil, fmt.Errorf("incomplete file change payload")
	}
	return &change, nil
}
