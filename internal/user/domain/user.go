package domain

import (
	"errors"
	"regexp"
	"time"
)

// User is the core user entity. PasswordHash holds the bcrypt digest only;
// the plaintext password is never stored or logged.
type User struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
	OrgID        string // empty when the user belongs to no organization
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is the user's global role tag.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleUser      Role = "user"
	RoleOfficer   Role = "officer"
	RoleSuperuser Role = "superuser"
	RoleAdmin     Role = "admin"
)

// BaselineRole is the role a user returns to when detached from an organization
// by deletion cascade. Removal from an organization downgrades to RoleGuest instead.
const BaselineRole = RoleUser

// Valid reports whether r is one of the known global roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleOfficer, RoleSuperuser, RoleAdmin:
		return true
	}
	return false
}

// Elevated reports whether r bypasses organization-level checks.
func (r Role) Elevated() bool {
	return r == RoleSuperuser || r == RoleAdmin
}

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRe = regexp.MustCompile(`^[a-z0-9_-]{3,16}$`)
)

// ValidEmail reports whether s matches the accepted address pattern.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidUsername reports whether s matches the accepted username pattern
// (3–16 lowercase letters, digits, underscore, hyphen).
func ValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !u.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}
