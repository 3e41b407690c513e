package domain

import "time"

// Queue is the per-organization operational status record, created lazily on
// first access.
type Queue struct {
	ID            string
	OrgID         string
	Status        Status
	OpenToOutside bool
	Version       int64 // optimistic-lock version, bumped on every update
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Status is the queue's operational status.
type Status string

const (
	StatusActive      Status = "active"
	StatusPaused      Status = "paused"
	StatusClosed      Status = "closed"
	StatusMaintenance Status = "maintenance"
)

// Valid reports whether s is a known queue status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusClosed, StatusMaintenance:
		return true
	}
	return false
}
