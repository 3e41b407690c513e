// Package service implements the membership registry: joining and leaving
// organizations, role changes, and member lookups.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clubqueue/backend/internal/apperrors"
	"clubqueue/backend/internal/audit"
	memdomain "clubqueue/backend/internal/membership/domain"
	"clubqueue/backend/internal/notification"
	notifdomain "clubqueue/backend/internal/notification/domain"
	"clubqueue/backend/internal/notification/producer"
	orgdomain "clubqueue/backend/internal/organization/domain"
	"clubqueue/backend/internal/platform/rbac"
	userdomain "clubqueue/backend/internal/user/domain"
)

// MembershipRepo is the persistence surface the service needs.
type MembershipRepo interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error)
	GetByUser(ctx context.Context, userID string) (*memdomain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*memdomain.Membership, error)
	ListByOrgAndRole(ctx context.Context, orgID string, role memdomain.Role) ([]*memdomain.Membership, error)
	Create(ctx context.Context, m *memdomain.Membership) error
	UpdateRole(ctx context.Context, userID, orgID string, role memdomain.Role) error
	DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error
}

// UserRepo is the subset of the user repository used by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	AssignOrg(ctx context.Context, userID, orgID string, role userdomain.Role) error
	Detach(ctx context.Context, userID string, role userdomain.Role) error
}

// OrgRepo is the subset of the organization repository used by the service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// MembershipService manages org membership records and keeps the user rows'
// org links in step with them.
type MembershipService struct {
	memberships MembershipRepo
	users       UserRepo
	orgs        OrgRepo
	gate        *rbac.Gate
	audit       audit.AuditLogger
	events      producer.Producer
}

// NewMembershipService wires the membership service. events may be nil to
// disable notification emission.
func NewMembershipService(memberships MembershipRepo, users UserRepo, orgs OrgRepo, gate *rbac.Gate, auditLogger audit.AuditLogger, events producer.Producer) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		users:       users,
		orgs:        orgs,
		gate:        gate,
		audit:       auditLogger,
		events:      events,
	}
}

// membershipRoleForGlobal maps the org-scoped membership role onto the global
// role stored on the user row.
func membershipRoleForGlobal(role memdomain.Role) userdomain.Role {
	if role == memdomain.RoleOfficer {
		return userdomain.RoleOfficer
	}
	return userdomain.RoleUser
}

// AddMember enrolls userID into the org with the given role. The caller must
// hold membership.add rights. Users belong to at most one organization:
// adding the org superuser, an existing member, or a user already linked to
// another org fails with ErrAlreadyMember.
func (s *MembershipService) AddMember(ctx context.Context, orgID, callerID, userID string, role memdomain.Role) (*memdomain.Membership, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("membership role %q: %w", role, apperrors.ErrInvalidFormat)
	}
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpMemberAdd); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	if org.IsSuperuser(userID) {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrAlreadyMember)
	}
	existing, err := s.memberships.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user %s already belongs to organization %s: %w", userID, existing.OrgID, apperrors.ErrAlreadyMember)
	}
	// Cross-check against the user row's org link: an owner of another org
	// has a link but no membership row.
	if user.OrgID != "" {
		return nil, fmt.Errorf("user %s already belongs to organization %s: %w", userID, user.OrgID, apperrors.ErrAlreadyMember)
	}

	m := &memdomain.Membership{
		ID:       uuid.New().String(),
		UserID:   userID,
		OrgID:    orgID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	if err := s.users.AssignOrg(ctx, userID, orgID, membershipRoleForGlobal(role)); err != nil {
		return nil, fmt.Errorf("link user: %w", err)
	}

	s.logEvent(ctx, orgID, callerID, "membership.add", "membership")
	s.emit(userID, orgID, notifdomain.EventMemberAdded,
		fmt.Sprintf("You were added to %s as %s", org.Name, role))
	return m, nil
}

// RemoveMember removes userID from the org. The org superuser cannot be
// removed. Removing a non-member fails with ErrNotMember. The removed user's
// role drops to guest and the org link is cleared.
func (s *MembershipService) RemoveMember(ctx context.Context, orgID, callerID, userID string) error {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpMemberRemove); err != nil {
		return err
	}

	// The superuser check comes before the membership lookup: the owner has
	// no membership row, and "cannot remove" is the more useful answer.
	if org.IsSuperuser(userID) {
		return fmt.Errorf("user %s: %w", userID, apperrors.ErrCannotRemoveSuperuser)
	}
	existing, err := s.memberships.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("user %s: %w", userID, apperrors.ErrNotMember)
	}

	if err := s.memberships.DeleteByUserAndOrg(ctx, userID, orgID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if err := s.users.Detach(ctx, userID, userdomain.RoleGuest); err != nil {
		return fmt.Errorf("detach user: %w", err)
	}

	s.logEvent(ctx, orgID, callerID, "membership.remove", "membership")
	s.emit(userID, orgID, notifdomain.EventMemberRemoved,
		fmt.Sprintf("You were removed from %s", org.Name))
	return nil
}

// ChangeRole sets userID's membership role. Changing the org superuser's role
// fails with ErrCannotChangeSuperuser. Setting the role a member already
// holds is a no-op success.
func (s *MembershipService) ChangeRole(ctx context.Context, orgID, callerID, userID string, role memdomain.Role) (*memdomain.Membership, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("membership role %q: %w", role, apperrors.ErrInvalidFormat)
	}
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpMemberRoleChange); err != nil {
		return nil, err
	}

	if org.IsSuperuser(userID) {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrCannotChangeSuperuser)
	}
	existing, err := s.memberships.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotMember)
	}
	if existing.Role == role {
		return existing, nil
	}

	if err := s.memberships.UpdateRole(ctx, userID, orgID, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if err := s.users.AssignOrg(ctx, userID, orgID, membershipRoleForGlobal(role)); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}
	existing.Role = role

	s.logEvent(ctx, orgID, callerID, "membership.role_change", "membership")
	s.emit(userID, orgID, notifdomain.EventRoleChanged,
		fmt.Sprintf("Your role in %s is now %s", org.Name, role))
	return existing, nil
}

// GetForUser returns the user's membership record, if any. Users belong to
// at most one organization.
func (s *MembershipService) GetForUser(ctx context.Context, userID string) (*memdomain.Membership, error) {
	m, err := s.memberships.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotMember)
	}
	return m, nil
}

// ListMembers returns the org's membership records. The caller must hold
// membership.list rights.
func (s *MembershipService) ListMembers(ctx context.Context, orgID, callerID string) ([]*memdomain.Membership, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpMemberList); err != nil {
		return nil, err
	}
	return s.memberships.ListByOrg(ctx, orgID)
}

// ListOfficers returns the org's officer memberships.
func (s *MembershipService) ListOfficers(ctx context.Context, orgID, callerID string) ([]*memdomain.Membership, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpMemberList); err != nil {
		return nil, err
	}
	return s.memberships.ListByOrgAndRole(ctx, orgID, memdomain.RoleOfficer)
}

// IsMember reports whether userID belongs to the org. The org superuser
// counts as a member even without a membership row.
func (s *MembershipService) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return false, err
	}
	if org.IsSuperuser(userID) {
		return true, nil
	}
	m, err := s.memberships.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// IsOfficer reports whether userID holds the officer membership role in the
// org. The superuser is not an officer; superuser standing is checked
// separately.
func (s *MembershipService) IsOfficer(ctx context.Context, orgID, userID string) (bool, error) {
	m, err := s.memberships.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	return m != nil && m.Role == memdomain.RoleOfficer, nil
}

// IsSuperuser reports whether userID owns the org.
func (s *MembershipService) IsSuperuser(ctx context.Context, orgID, userID string) (bool, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return false, err
	}
	return org.IsSuperuser(userID), nil
}

func (s *MembershipService) loadOrg(ctx context.Context, orgID string) (*orgdomain.Org, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("organization %s: %w", orgID, apperrors.ErrNotFound)
	}
	return org, nil
}

func (s *MembershipService) requireOp(ctx context.Context, org *orgdomain.Org, callerID string, op rbac.Operation) error {
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

func (s *MembershipService) logEvent(ctx context.Context, orgID, userID, action, resource string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, orgID, userID, action, resource, "")
}

func (s *MembershipService) emit(userID, orgID string, typ notifdomain.EventType, message string) {
	if s.events == nil {
		return
	}
	notification.EmitAsync(s.events, &notifdomain.Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrgID:     orgID,
		Type:      typ,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
}
