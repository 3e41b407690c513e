package repository

import (
	"context"

	"clubqueue/backend/internal/notification/domain"
)

// Repository defines persistence for notifications.
type Repository interface {
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.Notification, error)
	Create(ctx context.Context, n *domain.Notification) error
	MarkRead(ctx context.Context, id string) error
}
