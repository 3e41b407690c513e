package domain

import "time"

// Event is a notification event emitted on membership changes. It travels the
// event bus as JSON and is persisted as a Notification by the worker.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrgID     string    `json:"org_id"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType classifies a notification event.
type EventType string

const (
	EventMemberAdded   EventType = "member_added"
	EventMemberRemoved EventType = "member_removed"
	EventRoleChanged   EventType = "role_changed"
)

// Notification is a persisted per-user notification.
type Notification struct {
	ID        string
	UserID    string
	OrgID     string
	Type      EventType
	Message   string
	Read      bool
	CreatedAt time.Time
}
