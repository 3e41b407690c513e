package domain

import "time"

// Membership links a user to an organization with an org-scoped role.
// The organization's superuser is not represented here; it lives on the
// organization record and is outside the member/officer state machine.
type Membership struct {
	ID       string
	UserID   string
	OrgID    string
	Role     Role
	JoinedAt time.Time
}

// Role is the org-scoped membership role.
type Role string

const (
	RoleMember  Role = "member"
	RoleOfficer Role = "officer"
)

// Valid reports whether r is a known membership role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleOfficer
}
