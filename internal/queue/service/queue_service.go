// Package service implements per-organization queue state: lazy creation,
// status transitions, and the outside-access flag.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clubqueue/backend/internal/apperrors"
	"clubqueue/backend/internal/audit"
	memdomain "clubqueue/backend/internal/membership/domain"
	orgdomain "clubqueue/backend/internal/organization/domain"
	"clubqueue/backend/internal/platform/rbac"
	queuedomain "clubqueue/backend/internal/queue/domain"
	userdomain "clubqueue/backend/internal/user/domain"
)

// QueueRepo is the persistence surface the service needs.
type QueueRepo interface {
	GetByOrg(ctx context.Context, orgID string) (*queuedomain.Queue, error)
	List(ctx context.Context) ([]*queuedomain.Queue, error)
	Create(ctx context.Context, q *queuedomain.Queue) error
	Update(ctx context.Context, q *queuedomain.Queue) (bool, error)
}

// OrgRepo is the subset of the organization repository used by the service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// UserRepo is the subset of the user repository used by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// MembershipRepo is the subset of the membership repository used by the service.
type MembershipRepo interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error)
}

// QueueService manages the one queue each organization owns.
type QueueService struct {
	queues      QueueRepo
	orgs        OrgRepo
	users       UserRepo
	memberships MembershipRepo
	gate        *rbac.Gate
	audit       audit.AuditLogger
}

// NewQueueService wires the queue service.
func NewQueueService(queues QueueRepo, orgs OrgRepo, users UserRepo, memberships MembershipRepo, gate *rbac.Gate, auditLogger audit.AuditLogger) *QueueService {
	return &QueueService{
		queues:      queues,
		orgs:        orgs,
		users:       users,
		memberships: memberships,
		gate:        gate,
		audit:       auditLogger,
	}
}

const conflictRetries = 3

// GetOrCreate returns the org's queue, creating it closed and not open to
// outside users if it does not exist yet. The caller must hold queue.read
// rights in the org. Concurrent first reads may race on the insert; the
// loser re-reads the winner's row.
func (s *QueueService) GetOrCreate(ctx context.Context, orgID, callerID string) (*queuedomain.Queue, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpQueueRead); err != nil {
		return nil, err
	}
	return s.getOrCreate(ctx, orgID)
}

func (s *QueueService) getOrCreate(ctx context.Context, orgID string) (*queuedomain.Queue, error) {
	q, err := s.queues.GetByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if q != nil {
		return q, nil
	}

	now := time.Now().UTC()
	q = &queuedomain.Queue{
		ID:            uuid.New().String(),
		OrgID:         orgID,
		Status:        queuedomain.StatusClosed,
		OpenToOutside: false,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.queues.Create(ctx, q); err != nil {
		// Another request created the row first; the unique org_id
		// constraint rejected ours. Read theirs.
		existing, getErr := s.queues.GetByOrg(ctx, orgID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create queue: %w", err)
	}
	return q, nil
}

// List returns all queues across organizations. Restricted to global
// admin/superuser callers.
func (s *QueueService) List(ctx context.Context, callerID string) ([]*queuedomain.Queue, error) {
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
	return s.queues.List(ctx)
}

// UpdateStatus sets the queue's status. The caller must hold queue.update
// rights in the org. The queue is created on demand if missing.
func (s *QueueService) UpdateStatus(ctx context.Context, orgID, callerID string, status queuedomain.Status) (*queuedomain.Queue, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("queue status %q: %w", status, apperrors.ErrInvalidFormat)
	}
	return s.mutate(ctx, orgID, callerID, "queue.status_update", func(q *queuedomain.Queue) {
		q.Status = status
	})
}

// SetOpenToOutside toggles whether non-members may join the queue.
func (s *QueueService) SetOpenToOutside(ctx context.Context, orgID, callerID string, open bool) (*queuedomain.Queue, error) {
	return s.mutate(ctx, orgID, callerID, "queue.outside_update", func(q *queuedomain.Queue) {
		q.OpenToOutside = open
	})
}

// mutate applies fn to the org's queue under optimistic locking, retrying a
// bounded number of times before giving up with ErrConflict.
func (s *QueueService) mutate(ctx context.Context, orgID, callerID, action string, fn func(*queuedomain.Queue)) (*queuedomain.Queue, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOp(ctx, org, callerID, rbac.OpQueueUpdate); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < conflictRetries; attempt++ {
		q, err := s.getOrCreate(ctx, orgID)
		if err != nil {
			return nil, err
		}
		fn(q)
		q.UpdatedAt = time.Now().UTC()
		ok, err := s.queues.Update(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("update queue: %w", err)
		}
		if ok {
			s.logEvent(ctx, orgID, callerID, action, "queue")
			return q, nil
		}
	}
	return nil, fmt.Errorf("update queue for %s: %w", orgID, apperrors.ErrConflict)
}

func (s *QueueService) loadOrg(ctx context.Context, orgID string) (*orgdomain.Org, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("organization %s: %w", orgID, apperrors.ErrNotFound)
	}
	return org, nil
}

func (s *QueueService) requireOp(ctx context.Context, org *orgdomain.Org, callerID string, op rbac.Operation) error {
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

func (s *QueueService) logEvent(ctx context.Context, orgID, userID, action, resource string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, orgID, userID, action, resource, "")
}
