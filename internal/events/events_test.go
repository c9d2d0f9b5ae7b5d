package events

import (
	"strings"
	"testing"
)

func TestSubjectSafeNamesPassThrough(t *testing.T) {
	if got := RoomMessageSubject("dev-1"); got != "room.dev-1.message" {
		t.Errorf("unexpected subject: %q", got)
	}
	if got := RoomTaskSubject("dev-1"); got != "room.dev-1.task" {
		t.Errorf("unexpected subject: %q", got)
	}
	if got := AgentNotificationSubject("abc-123"); got != "notification.agent.abc-123" {
		t.Errorf("unexpected subject: %q", got)
	}
}

func TestSubjectTokenIsInjective(t *testing.T) {
	// Names that only differ in unsafe runes must not collapse onto one
	// subject, or their rooms would leak events into each other.
	pairs := [][2]string{
		{"a.b", "a_b"},
		{"a b", "a.b"},
		{"a_b", "a b"},
		{"a__b", "a_.b"},
	}
	for _, pair := range pairs {
		if RoomMessageSubject(pair[0]) == RoomMessageSubject(pair[1]) {
			t.Errorf("rooms %q and %q collapse onto %q", pair[0], pair[1], RoomMessageSubject(pair[0]))
		}
	}
}

func TestSubjectEscapedNameStaysOneToken(t *testing.T) {
	// A dot inside a room name must not add subject tokens, or room.*
	// subscriptions would stop matching the room.
	subject := RoomMessageSubject("a.b c")
	if strings.Count(subject, ".") != 2 {
		t.Errorf("expected a single room token, got %q", subject)
	}
	if !strings.HasPrefix(subject, "room.") || !strings.HasSuffix(subject, ".message") {
		t.Errorf("unexpected subject shape: %q", subject)
	}
}
