// Package notifier turns message mentions into per-recipient notifications.
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/events"
	"github.com/agenthub/agenthub/internal/events/bus"
	"github.com/agenthub/agenthub/internal/hub/models"
	"github.com/agenthub/agenthub/internal/hub/state"
	"github.com/agenthub/agenthub/internal/hub/store"
)

// previewLimit caps how much message content is quoted in notification text.
const previewLimit = 100

// Notifier creates, persists, and pushes notifications derived from mentions.
type Notifier struct {
	state    *state.State
	store    store.Store
	eventBus bus.EventBus
	logger   *logger.Logger
}

// New creates a Notifier.
func New(st *state.State, repo store.Store, eventBus bus.EventBus, log *logger.Logger) *Notifier {
	return &Notifier{
		state:    st,
		store:    repo,
		eventBus: eventBus,
		logger:   log,
	}
}

// Process resolves a persisted message's mentions and produces at most one
// notification per recipient. Names that don't resolve to a known agent in
// the room are dropped. Each notification is persisted before it is pushed;
// push delivery is best-effort.
func (n *Notifier) Process(ctx context.Context, msg *models.Message) ([]*models.Notification, error) {
	if len(msg.Mentions) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var created []*models.Notification
	for _, name := range msg.Mentions {
		agent, ok := n.state.FindAgentByName(msg.Room, name)
		if !ok {
			continue
		}
		if seen[agent.ID] {
			continue
		}
		seen[agent.ID] = true

		notification := &models.Notification{
			ID:        uuid.New().String(),
			AgentID:   agent.ID,
			Room:      msg.Room,
			Message:   renderText(msg.AgentName, msg.Content),
			Type:      models.NotificationTypeMention,
			CreatedAt: time.Now().UTC(),
		}
		if err := n.store.InsertNotification(ctx, notification); err != nil {
			return created, err
		}
		created = append(created, notification)

		event := bus.NewEvent(events.NotificationCreated, "notifier", notification)
		if err := n.eventBus.Publish(ctx, events.AgentNotificationSubject(agent.ID), event); err != nil {
			n.logger.Warn("Failed to push notification",
				zap.String("agent_id", agent.ID),
				zap.Error(err))
		}
	}

	if len(created) > 0 {
		n.logger.Debug("Notifications created",
			zap.String("room", msg.Room),
			zap.String("message_id", msg.ID),
			zap.Int("count", len(created)))
	}
	return created, nil
}

// List returns an agent's notifications newest-first, capped at 50.
func (n *Notifier) List(ctx context.Context, agentID string, unreadOnly bool) ([]*models.Notification, error) {
	return n.store.ListNotifications(ctx, agentID, unreadOnly, 50)
}

// MarkRead marks a notification read and reports whether it changed. Marking
// an already-read notification succeeds and reports false.
func (n *Notifier) MarkRead(ctx context.Context, id string) (bool, error) {
	return n.store.MarkNotificationRead(ctx, id)
}

// renderText synthesizes the human-readable notification body, quoting up to
// previewLimit characters of the triggering content.
func renderText(sender, content string) string {
	runes := []rune(content)
	if len(runes) > previewLimit {
		return sender + " mentioned you: " + string(runes[:previewLimit]) + "…"
	}
	return sender + " mentioned you: " + content
}
