package repository

import (
	"context"

	"clubqueue/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
