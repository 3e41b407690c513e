package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clubqueue/backend/internal/organization/domain"
)

const orgColumns = `id, name, superuser_id, key_hash, open_queue, allow_external_users, version, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrg(row)
}

// GetByName returns the organization with the given name, or nil if not found.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Org, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE name = $1`, name)
	return scanOrg(row)
}

// List returns all organizations ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Org, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()
	var out []*domain.Org
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Create persists the organization to the database. The organization must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, superuser_id, key_hash, open_queue, allow_external_users, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.Name, o.SuperuserID, o.KeyHash,
		o.Settings.OpenQueue, o.Settings.AllowExternalUsers,
		o.Version, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

// Update writes the organization with a version check. Returns false when the
// stored version no longer matches o.Version or the row is gone.
func (r *PostgresRepository) Update(ctx context.Context, o *domain.Org) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE organizations
		SET name = $2, key_hash = $3, open_queue = $4, allow_external_users = $5,
		    version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $7`,
		o.ID, o.Name, o.KeyHash,
		o.Settings.OpenQueue, o.Settings.AllowExternalUsers,
		time.Now().UTC(), o.Version,
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

// Delete removes the organization row. No error if the row is already gone.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrg(row rowScanner) (*domain.Org, error) {
	var o domain.Org
	err := row.Scan(&o.ID, &o.Name, &o.SuperuserID, &o.KeyHash,
		&o.Settings.OpenQueue, &o.Settings.AllowExternalUsers,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	return &o, nil
}
