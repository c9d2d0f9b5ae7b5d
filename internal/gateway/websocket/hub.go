package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/events"
	"github.com/agenthub/agenthub/internal/events/bus"
	"github.com/agenthub/agenthub/internal/hub/state"
)

// Hub manages all push sessions. Sessions are tracked by session id; the
// agent record only carries a derived connected flag, never a socket handle.
type Hub struct {
	state    *state.State
	eventBus bus.EventBus

	sessions map[string]*Client // keyed by session id

	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub creates the push session hub.
func NewHub(hubState *state.State, eventBus bus.EventBus, log *logger.Logger) *Hub {
	return &Hub{
		state:      hubState,
		eventBus:   eventBus,
		sessions:   make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log.WithFields(zap.String("component", "push_hub")),
	}
}

// Run processes session registration until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Push hub started")
	defer h.logger.Info("Push hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.closeAllSessions()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.sessions[client.ID] = client
			h.mu.Unlock()
			h.logger.Debug("Session registered", zap.String("session_id", client.ID))

		case client := <-h.unregister:
			h.removeSession(client)
		}
	}
}

// Register adds a session to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a session from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// removeSession drops a disconnected session: its bus subscriptions are
// released and the agent's connected flag cleared. The agent stays in its
// room until an explicit leave.
func (h *Hub) removeSession(client *Client) {
	h.mu.Lock()
	_, tracked := h.sessions[client.ID]
	delete(h.sessions, client.ID)
	h.mu.Unlock()
	if !tracked {
		return
	}

	// Subscriptions drain before the send channel closes; a late bus
	// delivery must never hit a closed channel.
	client.dropSubscriptions()
	if agentID, _ := client.Binding(); agentID != "" {
		h.state.SetConnected(agentID, false)
	}
	client.closeSend()
	h.logger.Debug("Session removed", zap.String("session_id", client.ID))
}

func (h *Hub) closeAllSessions() {
	h.mu.Lock()
	sessions := make([]*Client, 0, len(h.sessions))
	for _, client := range h.sessions {
		sessions = append(sessions, client)
	}
	h.sessions = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range sessions {
		client.dropSubscriptions()
		if agentID, _ := client.Binding(); agentID != "" {
			h.state.SetConnected(agentID, false)
		}
		client.closeSend()
	}
}

// Bind attaches a registered session to an (agent, room) pair and subscribes
// it to the room's message and task streams plus the agent's notification
// stream.
func (h *Hub) Bind(client *Client, agentID, room string) error {
	if agentID == "" || room == "" {
		return fmt.Errorf("agentId and room are required")
	}
	if _, ok := h.state.GetAgent(agentID); !ok {
		return fmt.Errorf("unknown agent: %s", agentID)
	}
	if !h.state.RoomExists(room) {
		return fmt.Errorf("unknown room: %s", room)
	}

	// Re-registration rebinds: drop the previous subscriptions first.
	client.dropSubscriptions()

	forward := func(event string) bus.EventHandler {
		return func(ctx context.Context, busEvent *bus.Event) error {
			frame, err := NewFrame(event, busEvent.Data)
			if err != nil {
				return err
			}
			client.SendFrame(frame)
			return nil
		}
	}

	var subs []bus.Subscription
	for _, binding := range []struct {
		subject string
		event   string
	}{
		{events.RoomMessageSubject(room), EventMessage},
		{events.RoomTaskSubject(room), EventTask},
		{events.AgentNotificationSubject(agentID), EventNotification},
	} {
		sub, err := h.eventBus.Subscribe(binding.subject, forward(binding.event))
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return fmt.Errorf("failed to subscribe to %s: %w", binding.subject, err)
		}
		subs = append(subs, sub)
	}

	client.setBinding(agentID, room, subs)
	h.state.SetConnected(agentID, true)

	h.logger.Info("Session bound",
		zap.String("session_id", client.ID),
		zap.String("agent_id", agentID),
		zap.String("room", room))
	return nil
}

// Echo re-emits a client-sent message payload to the session's room. This is
// a compatibility path; API send is the primary way to post messages.
func (h *Hub) Echo(ctx context.Context, client *Client, payload json.RawMessage) {
	_, room := client.Binding()
	if room == "" {
		client.sendError("session is not registered")
		return
	}

	var data interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		client.sendError("invalid message payload")
		return
	}

	event := bus.NewEvent(events.MessageCreated, "push", data)
	if err := h.eventBus.Publish(ctx, events.RoomMessageSubject(room), event); err != nil {
		h.logger.Warn("Failed to echo message",
			zap.String("session_id", client.ID),
			zap.String("room", room),
			zap.Error(err))
	}
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
