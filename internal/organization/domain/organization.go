package domain

import (
	"errors"
	"time"
)

// Org represents an organization/tenant. KeyHash is the bcrypt digest of the
// shared access key; the plaintext key is returned once at issue/rotate time
// and never persisted. SuperuserID is the immutable creator.
type Org struct {
	ID          string
	Name        string
	SuperuserID string
	KeyHash     string
	Settings    Settings
	Version     int64 // optimistic-lock version, bumped on every update
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settings is the organization settings bag.
type Settings struct {
	OpenQueue          bool
	AllowExternalUsers bool
}

// SettingsUpdate carries a partial settings change; nil fields are left unchanged.
type SettingsUpdate struct {
	OpenQueue          *bool
	AllowExternalUsers *bool
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.SuperuserID == "" {
		return errors.New("superuser id is required")
	}
	if o.KeyHash == "" {
		return errors.New("access key hash is required")
	}
	return nil
}

// IsSuperuser reports whether userID is the organization's superuser.
func (o *Org) IsSuperuser(userID string) bool {
	return userID != "" && o.SuperuserID == userID
}
