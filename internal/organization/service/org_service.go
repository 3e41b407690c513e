// Package service implements organization management: creation, access-key
// issuance and rotation, settings updates, and deletion with its membership
// cascade.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubqueue/backend/internal/apperrors"
	"clubqueue/backend/internal/audit"
	memdomain "clubqueue/backend/internal/membership/domain"
	orgdomain "clubqueue/backend/internal/organization/domain"
	"clubqueue/backend/internal/platform/rbac"
	"clubqueue/backend/internal/security"
	userdomain "clubqueue/backend/internal/user/domain"
)

// OrgRepo is the subset of the organization repository used by the service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
	GetByName(ctx context.Context, name string) (*orgdomain.Org, error)
	List(ctx context.Context) ([]*orgdomain.Org, error)
	Create(ctx context.Context, org *orgdomain.Org) error
	Update(ctx context.Context, org *orgdomain.Org) (bool, error)
	Delete(ctx context.Context, id string) error
}

// UserRepo is the subset of the user repository used by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	AssignOrg(ctx context.Context, userID, orgID string, role userdomain.Role) error
	DetachAllByOrg(ctx context.Context, orgID string, role userdomain.Role) error
}

// MembershipRepo is the subset of the membership repository used by the service.
type MembershipRepo interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error)
	DeleteAllByOrg(ctx context.Context, orgID string) error
}

// OrgService manages organization aggregates and their access keys.
type OrgService struct {
	orgs        OrgRepo
	users       UserRepo
	memberships MembershipRepo
	hasher      *security.Hasher
	gate        *rbac.Gate
	audit       audit.AuditLogger
}

// NewOrgService wires the organization service.
func NewOrgService(orgs OrgRepo, users UserRepo, memberships MembershipRepo, hasher *security.Hasher, gate *rbac.Gate, auditLogger audit.AuditLogger) *OrgService {
	return &OrgService{
		orgs:        orgs,
		users:       users,
		memberships: memberships,
		hasher:      hasher,
		gate:        gate,
		audit:       auditLogger,
	}
}

// conflictRetries bounds optimistic-lock retry loops on the org row.
const conflictRetries = 3

// Create registers a new organization owned by creatorID. If plaintextKey is
// empty a random access key is generated. The plaintext key is returned
// exactly once; only its bcrypt hash is stored. The creator becomes the
// organization's superuser and is linked to it.
func (s *OrgService) Create(ctx context.Context, name, creatorID, plaintextKey string) (*orgdomain.Org, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("organization name: %w", apperrors.ErrInvalidFormat)
	}

	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, "", fmt.Errorf("load creator: %w", err)
	}
	if creator == nil {
		return nil, "", fmt.Errorf("creator %s: %w", creatorID, apperrors.ErrNotFound)
	}

	existing, err := s.orgs.GetByName(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("check name: %w", err)
	}
	if existing != nil {
		return nil, "", fmt.Errorf("organization %q: %w", name, apperrors.ErrDuplicateName)
	}

	if plaintextKey == "" {
		plaintextKey, err = security.GenerateAccessKey()
		if err != nil {
			return nil, "", fmt.Errorf("generate access key: %w", err)
		}
	}
	keyHash, err := s.hasher.Hash([]byte(plaintextKey))
	if err != nil {
		return nil, "", fmt.Errorf("hash access key: %w", err)
	}

	now := time.Now().UTC()
	org := &orgdomain.Org{
		ID:          uuid.New().String(),
		Name:        name,
		SuperuserID: creatorID,
		KeyHash:     keyHash,
		Settings: orgdomain.Settings{
			OpenQueue:          false,
			AllowExternalUsers: false,
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := org.Validate(); err != nil {
		return nil, "", err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, "", fmt.Errorf("create organization: %w", err)
	}
	if err := s.users.AssignOrg(ctx, creatorID, org.ID, userdomain.RoleSuperuser); err != nil {
		return nil, "", fmt.Errorf("assign creator: %w", err)
	}

	s.logEvent(ctx, org.ID, creatorID, "org.create", "organization")
	return org, plaintextKey, nil
}

// GetByID loads an organization. Returns ErrNotFound when no such org exists
// and ErrForbidden when the caller is neither a member of the org nor
// globally elevated.
func (s *OrgService) GetByID(ctx context.Context, id, callerID string) (*orgdomain.Org, error) {
	org, err := s.loadOrg(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpOrgRead); err != nil {
		return nil, err
	}
	return org, nil
}

// GetByName loads an organization by its unique name. Gated like GetByID.
func (s *OrgService) GetByName(ctx context.Context, name, callerID string) (*orgdomain.Org, error) {
	org, err := s.orgs.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("organization %q: %w", name, apperrors.ErrNotFound)
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpOrgRead); err != nil {
		return nil, err
	}
	return org, nil
}

// List returns all organizations. Restricted to global admin/superuser callers.
func (s *OrgService) List(ctx context.Context, callerID string) ([]*orgdomain.Org, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("load caller: %w", err)
	}
	if caller == nil {
		return nil, fmt.Errorf("caller %s: %w", callerID, apperrors.ErrNotFound)
	}
	if !caller.Role.Elevated() {
		return nil, apperrors.ErrForbidden
	}
	return s.orgs.List(ctx)
}

// loadOrg fetches the org row without a permission check. Internal callers
// gate on the operation they perform.
func (s *OrgService) loadOrg(ctx context.Context, id string) (*orgdomain.Org, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("organization %s: %w", id, apperrors.ErrNotFound)
	}
	return org, nil
}

// VerifyKey checks a candidate access key against the organization's stored
// hash. Returns false on mismatch, never ErrInvalidCredential: callers decide
// how to react to a failed check. Part of the join flow, so no membership is
// required.
func (s *OrgService) VerifyKey(ctx context.Context, orgID, candidate string) (bool, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return false, err
	}
	return s.hasher.Compare(org.KeyHash, []byte(candidate)) == nil, nil
}

// RotateKey replaces the organization's access key and returns the new
// plaintext exactly once. If plaintextKey is empty a random key is generated,
// mirroring Create. Only the org superuser or a globally elevated caller may
// rotate. Retries on version conflicts.
func (s *OrgService) RotateKey(ctx context.Context, orgID, callerID, plaintextKey string) (string, error) {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		org, err := s.loadOrg(ctx, orgID)
		if err != nil {
			return "", err
		}
		if err := s.requireOp(ctx, org, callerID, rbac.OpOrgKeyRotate); err != nil {
			return "", err
		}

		plaintext := plaintextKey
		if plaintext == "" {
			plaintext, err = security.GenerateAccessKey()
			if err != nil {
				return "", fmt.Errorf("generate access key: %w", err)
			}
		}
		keyHash, err := s.hasher.Hash([]byte(plaintext))
		if err != nil {
			return "", fmt.Errorf("hash access key: %w", err)
		}

		org.KeyHash = keyHash
		org.UpdatedAt = time.Now().UTC()
		ok, err := s.orgs.Update(ctx, org)
		if err != nil {
			return "", fmt.Errorf("update organization: %w", err)
		}
		if ok {
			s.logEvent(ctx, orgID, callerID, "org.key_rotate", "organization")
			return plaintext, nil
		}
		// Version moved under us; reload and retry.
	}
	return "", fmt.Errorf("rotate key for %s: %w", orgID, apperrors.ErrConflict)
}

// UpdateSettings applies a partial settings update under optimistic locking.
// Unset fields keep their current values.
func (s *OrgService) UpdateSettings(ctx context.Context, orgID, callerID string, upd orgdomain.SettingsUpdate) (*orgdomain.Org, error) {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		org, err := s.loadOrg(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if err := s.requireOp(ctx, org, callerID, rbac.OpOrgSettingsUpdate); err != nil {
			return nil, err
		}

		if upd.OpenQueue != nil {
			org.Settings.OpenQueue = *upd.OpenQueue
		}
		if upd.AllowExternalUsers != nil {
			org.Settings.AllowExternalUsers = *upd.AllowExternalUsers
		}
		org.UpdatedAt = time.Now().UTC()

		ok, err := s.orgs.Update(ctx, org)
		if err != nil {
			return nil, fmt.Errorf("update organization: %w", err)
		}
		if ok {
			s.logEvent(ctx, orgID, callerID, "org.settings_update", "organization")
			return org, nil
		}
	}
	return nil, fmt.Errorf("update settings for %s: %w", orgID, apperrors.ErrConflict)
}

// Delete removes the organization along with all memberships, detaching every
// linked user back to the baseline role. Each step is idempotent, so a retry
// after a partial failure completes the cascade. Deleting an org that is
// already gone returns ErrNotFound.
func (s *OrgService) Delete(ctx context.Context, orgID, callerID string) error {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpOrgDelete); err != nil {
		return err
	}

	// Cascade order matters: memberships first, then user links, then the
	// org row. A crash mid-way leaves a state a retry can finish.
	if err := s.memberships.DeleteAllByOrg(ctx, orgID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := s.users.DetachAllByOrg(ctx, orgID, userdomain.BaselineRole); err != nil {
		return fmt.Errorf("detach users: %w", err)
	}
	if err := s.orgs.Delete(ctx, orgID); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}

	s.logEvent(ctx, orgID, callerID, "org.delete", "organization")
	return nil
}

// requireOp builds the rbac caller context and enforces the operation.
func (s *OrgService) requireOp(ctx context.Context, org *orgdomain.Org, callerID string, op rbac.Operation) error {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return fmt.Errorf("load caller: %w", err)
	}
	if caller == nil {
		return fmt.Errorf("caller %s: %w", callerID, apperrors.ErrNotFound)
	}
	m, err := s.memberships.GetByUserAndOrg(ctx, callerID, org.ID)
	if err != nil {
		return fmt.Errorf("load caller membership: %w", err)
	}
	var memberRole memdomain.Role
	if m != nil {
		memberRole = m.Role
	}
	return s.gate.Require(ctx, org.ID, op, rbac.Caller{
		UserID:         callerID,
		GlobalRole:     caller.Role,
		MembershipRole: memberRole,
		IsOrgSuperuser: org.IsSuperuser(callerID),
	})
}

func (s *OrgService) logEvent(ctx context.Context, orgID, userID, action, resource string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, orgID, userID, action, resource, "")
}
