package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clubqueue/backend/internal/queue/domain"
)

const queueColumns = `id, org_id, status, open_to_outside, version, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a queue repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByOrg returns the organization's queue, or nil if none has been created yet.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByOrg(ctx context.Context, orgID string) (*domain.Queue, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queues WHERE org_id = $1`, orgID)
	return scanQueue(row)
}

// List returns all queues ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Queue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM queues ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()
	var out []*domain.Queue
	for rows.Next() {
		q, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Create persists the queue. The org_id column is unique; a duplicate insert
// fails with a database uniqueness error.
func (r *PostgresRepository) Create(ctx context.Context, q *domain.Queue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO queues (id, org_id, status, open_to_outside, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.OrgID, string(q.Status), q.OpenToOutside, q.Version, q.CreatedAt, q.UpdatedAt,
	)
	return err
}

// Update writes the queue with a version check. Returns false when the stored
// version no longer matches q.Version or the row is gone.
func (r *PostgresRepository) Update(ctx context.Context, q *domain.Queue) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE queues
		SET status = $2, open_to_outside = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $5`,
		q.ID, string(q.Status), q.OpenToOutside, time.Now().UTC(), q.Version,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueue(row rowScanner) (*domain.Queue, error) {
	var (
		q      domain.Queue
		status string
	)
	err := row.Scan(&q.ID, &q.OrgID, &status, &q.OpenToOutside, &q.Version, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan queue: %w", err)
	}
	q.Status = domain.Status(status)
	return &q, nil
}
