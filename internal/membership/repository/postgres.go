package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubqueue/backend/internal/membership/domain"
)

const membershipColumns = `id, user_id, org_id, role, joined_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserAndOrg returns the membership for the given user and org, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 AND org_id = $2`,
		userID, orgID)
	return scanMembership(row)
}

// GetByUser returns the user's membership (user_id is unique across orgs),
// or nil if not found. Ordered by join time so the result stays deterministic
// even against pre-index data.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY joined_at LIMIT 1`, userID)
	return scanMembership(row)
}

// ListByOrg returns all memberships for the given org ordered by join time.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE org_id = $1 ORDER BY joined_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()
	return collectMemberships(rows)
}

// ListByOrgAndRole returns the org's memberships holding the given role.
func (r *PostgresRepository) ListByOrgAndRole(ctx context.Context, orgID string, role domain.Role) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE org_id = $1 AND role = $2 ORDER BY joined_at`,
		orgID, string(role))
	if err != nil {
		return nil, fmt.Errorf("list memberships by role: %w", err)
	}
	defer rows.Close()
	return collectMemberships(rows)
}

// Create persists the membership. user_id is unique across organizations; a
// duplicate insert fails with a database uniqueness error.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, org_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.UserID, m.OrgID, string(m.Role), m.JoinedAt,
	)
	return err
}

// UpdateRole sets the membership role for the (user, org) pair.
func (r *PostgresRepository) UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET role = $3 WHERE user_id = $1 AND org_id = $2`,
		userID, orgID, string(role))
	return err
}

// DeleteByUserAndOrg removes the membership row. No error if already gone.
func (r *PostgresRepository) DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND org_id = $2`, userID, orgID)
	return err
}

// DeleteAllByOrg removes every membership of the organization. No error if none exist.
func (r *PostgresRepository) DeleteAllByOrg(ctx context.Context, orgID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE org_id = $1`, orgID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	err := row.Scan(&m.ID, &m.UserID, &m.OrgID, &role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan membership: %w", err)
	}
	m.Role = domain.Role(role)
	return &m, nil
}

func collectMemberships(rows *sql.Rows) ([]*domain.Membership, error) {
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
