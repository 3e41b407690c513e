// Package engine evaluates org access policies. The OPA evaluator lets an
// organization override the built-in rbac permission table with Rego rules;
// the default policy reproduces the table exactly.
package engine

import (
	"context"

	"clubqueue/backend/internal/platform/rbac"
)

// Evaluator mirrors rbac.Evaluator; declared here so callers can depend on
// the engine package alone.
type Evaluator interface {
	Authorize(ctx context.Context, orgID string, op rbac.Operation, c rbac.Caller) (bool, error)
}
