package repository

import (
	"context"

	"clubqueue/backend/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Org, error)
	GetByName(ctx context.Context, name string) (*domain.Org, error)
	List(ctx context.Context) ([]*domain.Org, error)
	Create(ctx context.Context, o *domain.Org) error
	// Update writes the organization only if the stored version matches
	// o.Version, bumping it by one. Returns false when the version check fails
	// (a concurrent writer won) or the row is gone.
	Update(ctx context.Context, o *domain.Org) (bool, error)
	// Delete removes the organization row. Idempotent: no error if already gone.
	Delete(ctx context.Context, id string) error
}
