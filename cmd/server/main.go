// Server runs the gRPC control plane: auth interceptors, health service, and
// the backing Postgres, Kafka, and OTel wiring.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubqueue/backend/internal/audit"
	"clubqueue/backend/internal/authz/engine"
	"clubqueue/backend/internal/config"
	"clubqueue/backend/internal/db"
	"clubqueue/backend/internal/notification"
	"clubqueue/backend/internal/platform/rbac"
	"clubqueue/backend/internal/security"
	"clubqueue/backend/internal/server"
	"clubqueue/backend/internal/server/interceptors"
	"clubqueue/backend/internal/telemetry/otel"

	auditrepo "clubqueue/backend/internal/audit/repository"
	memrepo "clubqueue/backend/internal/membership/repository"
	memservice "clubqueue/backend/internal/membership/service"
	notifproducer "clubqueue/backend/internal/notification/producer"
	orgrepo "clubqueue/backend/internal/organization/repository"
	orgservice "clubqueue/backend/internal/organization/service"
	policyrepo "clubqueue/backend/internal/policy/repository"
	queuerepo "clubqueue/backend/internal/queue/repository"
	queueservice "clubqueue/backend/internal/queue/service"
	userrepo "clubqueue/backend/internal/user/repository"
	userservice "clubqueue/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "clubqueue-server", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	var tokens *security.TokenProvider
	if cfg.JWTPrivateKey != "" && cfg.JWTPublicKey != "" {
		signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
		if err != nil {
			log.Fatalf("jwt private key: %v", err)
		}
		pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
		if err != nil {
			log.Fatalf("jwt public key: %v", err)
		}
		tokens = security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	} else {
		log.Println("JWT keys not configured; serving unauthenticated")
	}

	producer, err := notifproducer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.NotificationKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if producer != nil {
		defer func() {
			time.Sleep(notification.ShutdownDrainDuration)
			_ = producer.Close()
		}()
		log.Printf("notifications enabled: topic %s", cfg.NotificationKafkaTopic)
	}

	deps := server.Deps{Tokens: tokens}

	var auditLog audit.AuditLogger
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer conn.Close()

		users := userrepo.NewPostgresRepository(conn)
		orgs := orgrepo.NewPostgresRepository(conn)
		memberships := memrepo.NewPostgresRepository(conn)
		queues := queuerepo.NewPostgresRepository(conn)
		policies := policyrepo.NewPostgresRepository(conn)
		auditRepo := auditrepo.NewPostgresRepository(conn)
		deps.AuditRepo = auditRepo

		evaluator := engine.NewOPAEvaluator(policies)
		if err := evaluator.HealthCheck(ctx); err != nil {
			log.Fatalf("policy engine: %v", err)
		}
		gate := rbac.NewGate(evaluator)
		auditLog = audit.NewLogger(auditRepo, interceptors.ClientIP, otel.NewAuditEmitter(providers.LoggerProvider))
		hasher := security.NewHasher(cfg.BcryptCost)

		// A typed-nil producer must stay a nil interface so the membership
		// service skips emission entirely.
		var events notifproducer.Producer
		if producer != nil {
			events = producer
		}

		deps.Users = userservice.NewUserService(users, memberships, hasher, tokens, auditLog)
		deps.Orgs = orgservice.NewOrgService(orgs, users, memberships, hasher, gate, auditLog)
		deps.Memberships = memservice.NewMembershipService(memberships, users, orgs, gate, auditLog, events)
		deps.Queues = queueservice.NewQueueService(queues, orgs, users, memberships, gate, auditLog)
	} else {
		log.Println("DATABASE_URL not set; running without persistence")
	}

	s, _ := server.New(deps)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()
	if auditLog != nil {
		auditLog.LogEvent(ctx, "", "", "server.start", "server", "")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	if auditLog != nil {
		auditLog.LogEvent(ctx, "", "", "server.stop", "server", "")
	}
	s.GracefulStop()
	log.Println("gRPC server stopped")
}
