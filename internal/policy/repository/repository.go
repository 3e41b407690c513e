package repository

import (
	"context"

	"clubqueue/backend/internal/policy/domain"
)

// Repository defines persistence for org access policies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Policy, error)
	ListEnabledByOrg(ctx context.Context, orgID string) ([]*domain.Policy, error)
	Create(ctx context.Context, p *domain.Policy) error
	Update(ctx context.Context, p *domain.Policy) error
}
