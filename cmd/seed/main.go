// Seed inserts development sample data for local testing.
// Idempotent: skips inserts if the admin user (admin@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"clubqueue/backend/internal/config"
	"clubqueue/backend/internal/db"
	memrepo "clubqueue/backend/internal/membership/repository"
	memservice "clubqueue/backend/internal/membership/service"
	orgrepo "clubqueue/backend/internal/organization/repository"
	orgservice "clubqueue/backend/internal/organization/service"
	"clubqueue/backend/internal/security"
	userrepo "clubqueue/backend/internal/user/repository"
	userservice "clubqueue/backend/internal/user/service"

	memdomain "clubqueue/backend/internal/membership/domain"
	userdomain "clubqueue/backend/internal/user/domain"

	"clubqueue/backend/internal/platform/rbac"
)

const (
	adminEmail    = "admin@example.com"
	memberEmail   = "member@example.com"
	officerEmail  = "officer@example.com"
	seedPassword  = "password123"
	seedOrgName   = "Chess Club"
	seedAccessKey = "chess-club-dev-key"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	memberships := memrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	gate := rbac.NewGate(nil)
	userSvc := userservice.NewUserService(users, memberships, hasher, nil, nil)
	orgSvc := orgservice.NewOrgService(orgs, users, memberships, hasher, gate, nil)
	memSvc := memservice.NewMembershipService(memberships, users, orgs, gate, nil, nil)

	admin, err := userSvc.Register(ctx, userservice.RegisterParams{
		Email: adminEmail, Password: seedPassword, Username: "admin",
		FirstName: "Admin", LastName: "User",
	})
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	if err := users.SetRole(ctx, admin.ID, userdomain.RoleAdmin); err != nil {
		log.Fatalf("promote admin: %v", err)
	}

	officer, err := userSvc.Register(ctx, userservice.RegisterParams{
		Email: officerEmail, Password: seedPassword, Username: "officer",
		FirstName: "Officer", LastName: "User",
	})
	if err != nil {
		log.Fatalf("create officer: %v", err)
	}
	member, err := userSvc.Register(ctx, userservice.RegisterParams{
		Email: memberEmail, Password: seedPassword, Username: "member",
		FirstName: "Member", LastName: "User",
	})
	if err != nil {
		log.Fatalf("create member: %v", err)
	}

	org, key, err := orgSvc.Create(ctx, seedOrgName, admin.ID, seedAccessKey)
	if err != nil {
		log.Fatalf("create org: %v", err)
	}

	if _, err := memSvc.AddMember(ctx, org.ID, admin.ID, officer.ID, memdomain.RoleOfficer); err != nil {
		log.Fatalf("add officer: %v", err)
	}
	if _, err := memSvc.AddMember(ctx, org.ID, admin.ID, member.ID, memdomain.RoleMember); err != nil {
		log.Fatalf("add member: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, seedPassword)
	fmt.Printf("Officer login: %s / %s\n", officerEmail, seedPassword)
	fmt.Printf("Member login: %s / %s\n", memberEmail, seedPassword)
	fmt.Printf("Org %q access key: %s\n", org.Name, key)
}
