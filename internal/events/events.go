// Package events defines event types and subject naming for the hub's
// event bus.
package events

import (
	"fmt"
	"strings"
)

// Event types carried on the bus.
const (
	MessageCreated      = "message.created"
	TaskCreated         = "task.created"
	TaskUpdated         = "task.updated"
	NotificationCreated = "notification.created"
	SharedFSChanged     = "sharedfs.changed"
)

// SharedFSSubject is the single subject the shared-directory watcher
// publishes on. Rooms do not get their own watcher; the hub fans one
// filesystem event out to every active room.
const SharedFSSubject = "sharedfs.change"

// RoomMessageSubject returns the subject carrying message events for a room.
func RoomMessageSubject(room string) string {
	return "room." + token(room) + ".message"
}

// RoomTaskSubject returns the subject carrying task events for a room.
func RoomTaskSubject(room string) string {
	return "room." + token(room) + ".task"
}

// AgentNotificationSubject returns the subject carrying notification events
// targeted at a single agent.
func AgentNotificationSubject(agentID string) string {
	return "notification.agent." + token(agentID)
}

// token encodes a free-form name as a single NATS-style subject token. Safe
// runes pass through; every other rune, including '_' itself, becomes an
// "_xxxxxx" escape with the rune's fixed-width hex value. The encoding is
// injective, so distinct names never share a subject.
func token(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%06x", r)
		}
	}
	return b.String()
}
