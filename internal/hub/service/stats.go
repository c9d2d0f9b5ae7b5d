package service

import (
	"context"

	"github.com/agenthub/agenthub/internal/hub/models"
)

// RoomStats summarizes one room for the stats endpoint.
type RoomStats struct {
	Name         string `json:"name"`
	AgentCount   int    `json:"agentCount"`
	MessageCount int    `json:"messageCount"`
	IsActive     bool   `json:"isActive"`
}

// HubStats is the response of the stats endpoint.
type HubStats struct {
	TotalRooms         int          `json:"totalRooms"`
	TotalAgents        int          `json:"totalAgents"`
	TotalMessages      int          `json:"totalMessages"`
	TotalTasks         int          `json:"totalTasks"`
	TotalNotifications int          `json:"totalNotifications"`
	SharedDirectory    string       `json:"sharedDirectory"`
	Rooms              []*RoomStats `json:"rooms"`
}

// Stats reports hub-wide and per-room counters. The hub-wide message total
// counts durable rows; per-room counts come from the in-memory logs and so
// include ephemeral file-change messages.
func (s *Service) Stats(ctx context.Context) (*HubStats, error) {
	counts, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	rooms := s.state.Rooms()
	stats := &HubStats{
		TotalRooms:         len(rooms),
		TotalMessages:      counts.Messages,
		TotalTasks:         counts.Tasks,
		TotalNotifications: counts.Notifications,
		SharedDirectory:    s.sharedDir,
		Rooms:              make([]*RoomStats, 0, len(rooms)),
	}
	for _, room := range rooms {
		agents := s.state.AgentsInRoom(room.Name)
		stats.TotalAgents += len(agents)
		msgs, _ := s.state.Messages(room.Name, nil, 0)
		stats.Rooms = append(stats.Rooms, &RoomStats{
			Name:         room.Name,
			AgentCount:   len(agents),
			MessageCount: len(msgs),
			IsActive:     room.IsActive,
		})
	}
	return stats, nil
}

// Notifications returns an agent's notifications, newest first, capped at 50.
func (s *Service) Notifications(ctx context.Context, agentID string, unreadOnly bool) ([]*models.Notification, error) {
	return s.notifier.List(ctx, agentID, unreadOnly)
}

// MarkNotificationRead marks a notification read, reporting whether the row
// changed.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) (bool, error) {
	return s.notifier.MarkRead(ctx, id)
}
