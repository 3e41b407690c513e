package domain

import "time"

// Policy is an org-level access policy override: a Rego module evaluated by
// the authz engine in place of the built-in permission table.
type Policy struct {
	ID        string
	OrgID     string
	Rules     string // Rego source
	Enabled   bool
	CreatedAt time.Time
}
