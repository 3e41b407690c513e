package repository

import (
	"context"

	"clubqueue/backend/internal/queue/domain"
)

// Repository defines persistence for queues.
type Repository interface {
	GetByOrg(ctx context.Context, orgID string) (*domain.Queue, error)
	List(ctx context.Context) ([]*domain.Queue, error)
	Create(ctx context.Context, q *domain.Queue) error
	// Update writes the queue only if the stored version matches q.Version,
	// bumping it by one. Returns false when the version check fails.
	Update(ctx context.Context, q *domain.Queue) (bool, error)
}
