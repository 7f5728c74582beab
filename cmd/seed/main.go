// seed creates the initial admin account plus a sample member for local
// development. Idempotent: exits quietly if the admin already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"identity-service/internal/config"
	"identity-service/internal/db"
	"identity-service/internal/security"
	"identity-service/internal/user/domain"
	userrepo "identity-service/internal/user/repository"
)

const (
	adminEmail  = "admin@example.com"
	memberEmail = "dev@example.com"
	seedPass    = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(seedPass)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	seedUsers := []*domain.User{
		{
			ID:            uuid.New().String(),
			Email:         adminEmail,
			Name:          "Admin",
			PasswordHash:  hash,
			Role:          domain.RoleAdmin,
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:           uuid.New().String(),
			Email:        memberEmail,
			Name:         "Dev User",
			PasswordHash: hash,
			Role:         domain.RoleMember,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	for _, u := range seedUsers {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create %s: %v", u.Email, err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, seedPass)
	fmt.Printf("Member login: %s / %s\n", memberEmail, seedPass)
}
