// Package server assembles the gRPC server: interceptor chain, health
// service, and reflection.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	auditrepo "clubqueue/backend/internal/audit/repository"
	memservice "clubqueue/backend/internal/membership/service"
	orgservice "clubqueue/backend/internal/organization/service"
	queueservice "clubqueue/backend/internal/queue/service"
	"clubqueue/backend/internal/security"
	"clubqueue/backend/internal/server/interceptors"
	userservice "clubqueue/backend/internal/user/service"
)

// Deps holds the dependencies the server wires into its interceptor chain,
// plus the domain services the RPC surface binds to as it grows.
type Deps struct {
	// Tokens validates Bearer access tokens. If nil, no auth interceptor is
	// installed and every RPC runs unauthenticated.
	Tokens *security.TokenProvider
	// AuditRepo receives an audit entry per authenticated RPC. If nil, no
	// RPCs are audited.
	AuditRepo auditrepo.Repository
	// PublicMethods are full method names served without a Bearer token.
	PublicMethods map[string]bool
	// SkipMethods are full method names excluded from audit and request logs.
	SkipMethods map[string]bool

	// Domain services. Nil when persistence is not configured; only the
	// health and reflection services are served then.
	Users       *userservice.UserService
	Orgs        *orgservice.OrgService
	Memberships *memservice.MembershipService
	Queues      *queueservice.QueueService
}

// healthMethods are always public and never audited or logged.
var healthMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// New builds a *grpc.Server with the OTel stats handler and the logging,
// auth, and audit interceptors, and registers the standard health service and
// reflection. The returned health server starts in SERVING state.
func New(deps Deps) (*grpc.Server, *health.Server) {
	public := make(map[string]bool, len(deps.PublicMethods)+len(healthMethods))
	skip := make(map[string]bool, len(deps.SkipMethods)+len(healthMethods))
	for m := range healthMethods {
		public[m] = true
		skip[m] = true
	}
	for m := range deps.PublicMethods {
		public[m] = true
	}
	for m := range deps.SkipMethods {
		skip[m] = true
	}

	chain := []grpc.UnaryServerInterceptor{
		interceptors.LoggingUnary(skip),
	}
	if deps.Tokens != nil {
		chain = append(chain, interceptors.AuthUnary(deps.Tokens, public))
	}
	if deps.AuditRepo != nil {
		chain = append(chain, interceptors.AuditUnary(deps.AuditRepo, skip))
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	return s, hs
}
