package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubqueue/backend/internal/apperrors"
	"clubqueue/backend/internal/audit"
	membershipdomain "clubqueue/backend/internal/membership/domain"
	"clubqueue/backend/internal/security"
	"clubqueue/backend/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the user service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateLastLogin(ctx context.Context, id string) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	Detach(ctx context.Context, id string, role domain.Role) error
	Delete(ctx context.Context, id string) error
}

// MembershipRepo is the minimal membership repository needed by the user service.
type MembershipRepo interface {
	GetByUser(ctx context.Context, userID string) (*membershipdomain.Membership, error)
	DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error
}

// RegisterParams carries sign-up input. Password is hashed before storage and
// never retained.
type RegisterParams struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

// LoginResult holds the authenticated user and their issued access token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// UserService implements registration, authentication, and admin user management.
type UserService struct {
	users       UserRepo
	memberships MembershipRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	audit       audit.AuditLogger
}

// NewUserService returns a UserService with the given dependencies.
// tokens may be nil when token issuance is not needed (e.g. seed tooling);
// auditLogger may be nil to disable audit records.
func NewUserService(users UserRepo, memberships MembershipRepo, hasher *security.Hasher, tokens *security.TokenProvider, auditLogger audit.AuditLogger) *UserService {
	return &UserService{
		users:       users,
		memberships: memberships,
		hasher:      hasher,
		tokens:      tokens,
		audit:       auditLogger,
	}
}

const minPasswordLen = 8

// Register creates a user with a salted password hash and the default role.
// Fails with apperrors.ErrDuplicateEmail / ErrDuplicateUsername on uniqueness
// violations and ErrInvalidFormat on malformed input.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	username := strings.TrimSpace(p.Username)
	if !domain.ValidEmail(email) {
		return nil, fmt.Errorf("email: %w", apperrors.ErrInvalidFormat)
	}
	if !domain.ValidUsername(username) {
		return nil, fmt.Errorf("username: %w", apperrors.ErrInvalidFormat)
	}
	if len(p.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, apperrors.ErrInvalidFormat)
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateUsername
	}
	hashed, err := s.hasher.Hash([]byte(p.Password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PasswordHash: hashed,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidFormat)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logEvent(ctx, "", user.ID, "user.register", "user")
	return user, nil
}

// Authenticate verifies email/password. Fails with apperrors.ErrNotFound when
// no such email exists and ErrInvalidCredential when the hash comparison
// fails. The only mutation on success is the last-login timestamp.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredential
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.logEvent(ctx, user.OrgID, user.ID, "user.login_failure", "user")
		return nil, apperrors.ErrInvalidCredential
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user.LastLogin = &now
	s.logEvent(ctx, user.OrgID, user.ID, "user.login", "user")
	return user, nil
}

// Login authenticates and issues an access token carrying the user's id, org
// link, and global role.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if s.tokens == nil {
		return &LoginResult{User: user}, nil
	}
	token, expiresAt, err := s.tokens.Issue(user.ID, user.OrgID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetByID returns the user, or apperrors.ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

// List returns all users. Restricted to global admin/superuser callers.
func (s *UserService) List(ctx context.Context, callerID string) ([]*domain.User, error) {
	if err := s.requireElevated(ctx, callerID); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// UpdateRole sets a user's global role. Restricted to global admin/superuser
// callers; the admin role itself cannot be granted this way.
func (s *UserService) UpdateRole(ctx context.Context, callerID, userID string, role domain.Role) (*domain.User, error) {
	if err := s.requireElevated(ctx, callerID); err != nil {
		return nil, err
	}
	if !role.Valid() || role == domain.RoleAdmin {
		return nil, fmt.Errorf("role %q: %w", role, apperrors.ErrInvalidFormat)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return nil, err
	}
	user.Role = role
	s.logEvent(ctx, user.OrgID, callerID, "user.role_update", "user")
	return user, nil
}

// Delete removes a user. Restricted to global admin/superuser callers. Any
// organization membership is detached first so no dangling membership row or
// org link survives the user.
func (s *UserService) Delete(ctx context.Context, callerID, userID string) error {
	if err := s.requireElevated(ctx, callerID); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.ErrNotFound
	}
	if user.OrgID != "" {
		if err := s.memberships.DeleteByUserAndOrg(ctx, userID, user.OrgID); err != nil {
			return err
		}
		if err := s.users.Detach(ctx, userID, domain.BaselineRole); err != nil {
			return err
		}
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logEvent(ctx, user.OrgID, callerID, "user.delete", "user")
	return nil
}

func (s *UserService) requireElevated(ctx context.Context, callerID string) error {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return err
	}
	if caller == nil {
		return apperrors.ErrNotFound
	}
	if !caller.Role.Elevated() {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *UserService) logEvent(ctx context.Context, orgID, userID, action, resource string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, orgID, userID, action, resource, "")
	}
}
