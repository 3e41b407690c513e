package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clubqueue/backend/internal/user/domain"
)

const userColumns = `id, email, username, first_name, last_name, password_hash, role, org_id, is_active, last_login, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByUsername returns the user with the given username, or nil if not found.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, first_name, last_name, password_hash, role, org_id, is_active, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Email, u.Username, nullStr(u.FirstName), nullStr(u.LastName),
		u.PasswordHash, string(u.Role), nullStr(u.OrgID), u.IsActive, u.LastLogin,
		u.CreatedAt, u.UpdatedAt,
	)
	return err
}

// Update updates the mutable profile fields of the existing user record.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, username = $3, first_name = $4, last_name = $5,
		    password_hash = $6, role = $7, org_id = $8, is_active = $9, updated_at = $10
		WHERE id = $1`,
		u.ID, u.Email, u.Username, nullStr(u.FirstName), nullStr(u.LastName),
		u.PasswordHash, string(u.Role), nullStr(u.OrgID), u.IsActive, time.Now().UTC(),
	)
	return err
}

// UpdateLastLogin stamps last_login with the current time.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	return err
}

// SetRole sets the user's global role.
func (r *PostgresRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		id, string(role), time.Now().UTC())
	return err
}

// AssignOrg sets the user's organization link and global role in one write.
func (r *PostgresRepository) AssignOrg(ctx context.Context, id, orgID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET org_id = $2, role = $3, updated_at = $4 WHERE id = $1`,
		id, orgID, string(role), time.Now().UTC())
	return err
}

// Detach clears the user's organization link and sets the given role. No-op if the user does not exist.
func (r *PostgresRepository) Detach(ctx context.Context, id string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET org_id = NULL, role = $2, updated_at = $3 WHERE id = $1`,
		id, string(role), time.Now().UTC())
	return err
}

// DetachAllByOrg clears the organization link for every user linked to orgID and resets their role.
// Idempotent: re-running after a partial failure affects no extra rows.
func (r *PostgresRepository) DetachAllByOrg(ctx context.Context, orgID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET org_id = NULL, role = $2, updated_at = $3 WHERE org_id = $1`,
		orgID, string(role), time.Now().UTC())
	return err
}

// Delete removes the user row. No error if the row is already gone.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		first     sql.NullString
		last      sql.NullString
		orgID     sql.NullString
		lastLogin sql.NullTime
		role      string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &first, &last, &u.PasswordHash,
		&role, &orgID, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.FirstName = first.String
	u.LastName = last.String
	u.OrgID = orgID.String
	u.Role = domain.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
