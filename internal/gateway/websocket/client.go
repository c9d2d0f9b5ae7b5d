package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/events/bus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB
)

// Client is one push session. It is anonymous until the peer sends its
// registration frame, which binds it to an (agent, room) pair.
type Client struct {
	ID   string
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	mu            sync.RWMutex
	agentID       string
	room          string
	subscriptions []bus.Subscription

	// sendMu serializes SendFrame against closeSend. It is separate from mu:
	// bus handlers call SendFrame while dropSubscriptions waits on them, and
	// sharing a lock there would deadlock.
	sendMu     sync.RWMutex
	sendClosed bool

	logger *logger.Logger
}

// NewClient creates a push session over an accepted connection.
func NewClient(id string, conn *websocket.Conn, hub *Hub, log *logger.Logger) *Client {
	return &Client{
		ID:     id,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 256),
		logger: log.WithFields(zap.String("session_id", id)),
	}
}

// Binding returns the session's (agentID, room) pair; empty until registered.
func (c *Client) Binding() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.agentID, c.room
}

func (c *Client) setBinding(agentID, room string, subs []bus.Subscription) {
	c.mu.Lock()
	c.agentID = agentID
	c.room = room
	c.subscriptions = subs
	c.mu.Unlock()
}

// dropSubscriptions detaches the session from the event bus.
func (c *Client) dropSubscriptions() {
	c.mu.Lock()
	subs := c.subscriptions
	c.subscriptions = nil
	c.mu.Unlock()
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe", zap.Error(err))
		}
	}
}

// ReadPump pumps frames from the connection to the hub.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("Failed to parse frame", zap.Error(err))
			c.sendError("invalid frame")
			continue
		}
		c.handleFrame(ctx, &frame)
	}
}

// handleFrame processes one inbound frame.
func (c *Client) handleFrame(ctx context.Context, frame *Frame) {
	c.logger.Debug("Received frame", zap.String("event", frame.Event))

	switch frame.Event {
	case EventRegister:
		var req RegisterPayload
		if err := frame.ParsePayload(&req); err != nil {
			c.sendError("invalid register payload: " + err.Error())
			return
		}
		if err := c.hub.Bind(c, req.AgentID, req.Room); err != nil {
			c.sendError(err.Error())
			return
		}
	case EventMessage:
		c.hub.Echo(ctx, c, frame.Payload)
	default:
		c.sendError("unknown event: " + frame.Event)
	}
}

// SendFrame queues a frame for delivery. Delivery is best-effort: when the
// session's buffer is full, or the session is already closed, the frame is
// dropped.
func (c *Client) SendFrame(frame *Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("Failed to marshal frame", zap.Error(err))
		return
	}
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Session send buffer full, dropping frame",
			zap.String("event", frame.Event))
	}
}

// closeSend shuts the send channel exactly once. No SendFrame can be in
// flight once the write lock is held, so the close cannot race a send.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

func (c *Client) sendError(message string) {
	frame, err := NewFrame("error", map[string]string{"error": message})
	if err != nil {
		return
	}
	c.SendFrame(frame)
}

// WritePump pumps queued frames to the connection and keeps the peer alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
