package otel

import (
	"context"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"clubqueue/backend/internal/audit"
	auditdomain "clubqueue/backend/internal/audit/domain"
)

// NewAuditEmitter returns an EventEmitter that mirrors audit entries as OTel
// log records via the given LoggerProvider. If provider is nil, returns a
// no-op emitter.
func NewAuditEmitter(provider *sdklog.LoggerProvider) audit.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("clubqueue.audit")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *auditdomain.AuditLog) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the audit entry to an OTel log record and emits it.
func (e *otelEmitter) Emit(ctx context.Context, entry *auditdomain.AuditLog) error {
	if entry == nil {
		return nil
	}
	rec := otellog.Record{}
	if !entry.CreatedAt.IsZero() {
		rec.SetTimestamp(entry.CreatedAt)
	}
	rec.SetBody(otellog.StringValue(entry.Action))
	if entry.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", entry.OrgID))
	}
	if entry.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", entry.UserID))
	}
	if entry.Resource != "" {
		rec.AddAttributes(otellog.String("resource", entry.Resource))
	}
	if entry.IP != "" {
		rec.AddAttributes(otellog.String("client_ip", entry.IP))
	}
	if entry.Metadata != "" {
		rec.AddAttributes(otellog.String("metadata", entry.Metadata))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
