package repository

import (
	"context"
	"database/sql"
	"fmt"

	"clubqueue/backend/internal/notification/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a notification repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByUser returns the user's notifications, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, org_id, type, message, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var out []*domain.Notification
	for rows.Next() {
		var (
			n   domain.Notification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrgID, &typ, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = domain.EventType(typ)
		out = append(out, &n)
	}
	return out, rows.Err()
}

// Create persists the notification. Inserting an existing ID is a no-op so
// the worker can redeliver events safely.
func (r *PostgresRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, org_id, type, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.UserID, n.OrgID, string(n.Type), n.Message, n.Read, n.CreatedAt)
	return err
}

// MarkRead flags the notification as read. No error if the row is gone.
func (r *PostgresRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	return err
}
