package repository

import (
	"context"

	"clubqueue/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	UpdateLastLogin(ctx context.Context, id string) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	// AssignOrg sets the user's organization link and global role in one write.
	AssignOrg(ctx context.Context, id, orgID string, role domain.Role) error
	// Detach clears the user's organization link and sets the given role.
	// No-op if the user does not exist.
	Detach(ctx context.Context, id string, role domain.Role) error
	// DetachAllByOrg clears the organization link for every user linked to orgID
	// and resets their role. Idempotent; safe to re-run after a partial failure.
	DetachAllByOrg(ctx context.Context, orgID string, role domain.Role) error
	Delete(ctx context.Context, id string) error
}
