package domain

import "time"

// AuditLog records one security-relevant mutation (registration, login
// failure, key rotation, membership or queue change).
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
