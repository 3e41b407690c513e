package otel

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	auditdomain "clubqueue/backend/internal/audit/domain"
)

func TestNewProvidersEmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
		t.Fatal("no-op providers should all be non-nil")
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("shutdown should be a no-op, got %v", err)
	}
}

func TestNewProvidersWhitespaceEndpoint(t *testing.T) {
	providers, err := NewProviders(context.Background(), "   ", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers == nil {
		t.Fatal("providers should not be nil")
	}
}

func TestNewProvidersInvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), endpoint, "test-service", false); err == nil {
			t.Errorf("NewProviders(%q) should return error", endpoint)
		}
	}
}

func TestSetGlobal(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	providers.SetGlobal()
	if otel.GetTracerProvider() != providers.TracerProvider {
		t.Error("global TracerProvider should be set")
	}
	if otel.GetMeterProvider() != providers.MeterProvider {
		t.Error("global MeterProvider should be set")
	}
}

func TestNewAuditEmitterNilProvider(t *testing.T) {
	emitter := NewAuditEmitter(nil)
	if emitter == nil {
		t.Fatal("emitter should not be nil")
	}
	if err := emitter.Emit(context.Background(), &auditdomain.AuditLog{Action: "org.create"}); err != nil {
		t.Errorf("no-op emitter should not error, got %v", err)
	}
	if err := emitter.Emit(context.Background(), nil); err != nil {
		t.Errorf("nil entry should not error, got %v", err)
	}
}

func TestAuditEmitterEmit(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	emitter := NewAuditEmitter(providers.LoggerProvider)
	entry := &auditdomain.AuditLog{
		ID:        "id-1",
		OrgID:     "org-1",
		UserID:    "user-1",
		Action:    "membership.add",
		Resource:  "membership",
		IP:        "10.0.0.1",
		CreatedAt: time.Now().UTC(),
	}
	if err := emitter.Emit(context.Background(), entry); err != nil {
		t.Errorf("Emit: %v", err)
	}
	if err := emitter.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit nil: %v", err)
	}
}
