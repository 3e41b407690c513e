package server

import (
	"testing"

	memservice "clubqueue/backend/internal/membership/service"
	orgservice "clubqueue/backend/internal/organization/service"
	"clubqueue/backend/internal/platform/rbac"
	queueservice "clubqueue/backend/internal/queue/service"
	"clubqueue/backend/internal/security"
	userservice "clubqueue/backend/internal/user/service"
)

func TestNewRegistersHealthService(t *testing.T) {
	gate := rbac.NewGate(nil)
	hasher := security.NewHasher(4)
	deps := Deps{
		Users:       userservice.NewUserService(nil, nil, hasher, nil, nil),
		Orgs:        orgservice.NewOrgService(nil, nil, nil, hasher, gate, nil),
		Memberships: memservice.NewMembershipService(nil, nil, nil, gate, nil, nil),
		Queues:      queueservice.NewQueueService(nil, nil, nil, nil, gate, nil),
	}

	s, hs := New(deps)
	if s == nil || hs == nil {
		t.Fatal("New returned a nil server")
	}
	defer s.Stop()

	if _, ok := s.GetServiceInfo()["grpc.health.v1.Health"]; !ok {
		t.Error("health service not registered")
	}
}

func TestNewWithoutServices(t *testing.T) {
	s, _ := New(Deps{})
	if s == nil {
		t.Fatal("New returned a nil server")
	}
	s.Stop()
}
