package repository

import (
	"context"

	"clubqueue/backend/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	GetByUser(ctx context.Context, userID string) (*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	ListByOrgAndRole(ctx context.Context, orgID string, role domain.Role) ([]*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) error
	// DeleteByUserAndOrg removes the membership row. Idempotent.
	DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error
	// DeleteAllByOrg removes every membership of the organization. Idempotent.
	DeleteAllByOrg(ctx context.Context, orgID string) error
}
