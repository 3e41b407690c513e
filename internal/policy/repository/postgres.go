package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubqueue/backend/internal/policy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the policy for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	var p domain.Policy
	err := r.db.QueryRowContext(ctx,
		`SELECT id, org_id, rules, enabled, created_at FROM policies WHERE id = $1`, id).
		Scan(&p.ID, &p.OrgID, &p.Rules, &p.Enabled, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return &p, nil
}

// ListEnabledByOrg returns the org's enabled policies ordered by creation time.
func (r *PostgresRepository) ListEnabledByOrg(ctx context.Context, orgID string) ([]*domain.Policy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, org_id, rules, enabled, created_at FROM policies
		 WHERE org_id = $1 AND enabled ORDER BY created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()
	var out []*domain.Policy
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Rules, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Create persists the policy to the database. The policy must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Policy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO policies (id, org_id, rules, enabled, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.OrgID, p.Rules, p.Enabled, p.CreatedAt)
	return err
}

// Update updates the policy's rules and enabled flag.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Policy) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE policies SET rules = $2, enabled = $3 WHERE id = $1`,
		p.ID, p.Rules, p.Enabled)
	return err
}
