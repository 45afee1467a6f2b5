// Package domain defines the core chat models shared by the store, gateway and front-ends.
package domain

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// TurnState represents where the current user turn is in its lifecycle.
type TurnState string

const (
	TurnStateIdle          TurnState = "idle"
	TurnStateAwaitingReply TurnState = "awaiting_reply"
	TurnStateReplyReceived TurnState = "reply_received"
	TurnStateErrorReceived TurnState = "error_received"
)

// EventType represents the type of a session event.
type EventType string

const (
	EventTypeMessage  EventType = "message"
	EventTypeCleared  EventType = "cleared"
	EventTypeSettings EventType = "settings"
	EventTypeState    EventType = "state"
	EventTypeStatus   EventType = "status"
	EventTypeLocation EventType = "location"
)
