package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clubqueue/backend/internal/audit/domain"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (f *fakeRepo) ListByOrg(_ context.Context, orgID string, _, _ int32) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for _, e := range f.entries {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, a *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *a
	f.entries = append(f.entries, &cp)
	return nil
}

type fakeEmitter struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (f *fakeEmitter) Emit(_ context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func TestLogEvent(t *testing.T) {
	repo := &fakeRepo{}
	emitter := &fakeEmitter{}
	l := NewLogger(repo, func(context.Context) string { return "10.0.0.1" }, emitter)

	l.LogEvent(context.Background(), "org-1", "user-1", "org.key_rotate", "organization", `{"k":"v"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("persisted entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("entry must get an id")
	}
	if e.OrgID != "org-1" || e.UserID != "user-1" || e.Action != "org.key_rotate" || e.Resource != "organization" {
		t.Errorf("entry = %+v", e)
	}
	if e.IP != "10.0.0.1" {
		t.Errorf("ip = %q, want extractor output", e.IP)
	}
	if e.CreatedAt.IsZero() {
		t.Error("created_at must be set")
	}

	if len(emitter.entries) != 1 || emitter.entries[0].ID != e.ID {
		t.Error("entry should be mirrored to the emitter")
	}
}

func TestLogEventSentinelOrg(t *testing.T) {
	repo := &fakeRepo{}
	l := NewLogger(repo, nil, nil)

	l.LogEvent(context.Background(), "", "user-1", "user.register", "user", "")

	if len(repo.entries) != 1 {
		t.Fatalf("persisted entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].OrgID != SentinelOrgID {
		t.Errorf("org = %q, want sentinel %q", repo.entries[0].OrgID, SentinelOrgID)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want unknown without extractor", repo.entries[0].IP)
	}
}

func TestLogEventBestEffort(t *testing.T) {
	// Repo and emitter failures must not panic or surface to the caller.
	l := NewLogger(&fakeRepo{err: errors.New("db down")}, nil, &fakeEmitter{err: errors.New("sink down")})
	l.LogEvent(context.Background(), "org-1", "user-1", "org.create", "organization", "")

	// Nil repo short-circuits entirely.
	nilLogger := NewLogger(nil, nil, nil)
	nilLogger.LogEvent(context.Background(), "org-1", "user-1", "org.create", "organization", "")
}
