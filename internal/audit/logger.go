package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"clubqueue/backend/internal/audit/domain"
	auditrepo "clubqueue/backend/internal/audit/repository"
)

// SentinelOrgID is the org_id used for audit events that have no org
// (e.g. registration, login failure).
const SentinelOrgID = "_system"

// IPExtractor returns the client IP from the request context (e.g. gRPC peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string)
}

// EventEmitter mirrors audit entries to an external sink (e.g. OTel logs).
// Emit is best-effort; errors are logged by the Logger.
type EventEmitter interface {
	Emit(ctx context.Context, entry *domain.AuditLog) error
}

// Logger implements AuditLogger using the audit repository, an optional IP
// extractor, and an optional emitter.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	emitter     EventEmitter
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor
// for client IP. ipExtractor and emitter may be nil; without an extractor the
// IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, emitter EventEmitter) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, emitter: emitter}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
	if l.emitter != nil {
		if err := l.emitter.Emit(ctx, entry); err != nil {
			log.Printf("audit: failed to emit event %s/%s: %v", action, resource, err)
		}
	}
}
