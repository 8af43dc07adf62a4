// seed_admin crea la primera cuenta super_admin: identidad con email verificado,
// perfil Verified en la partición super_admins y su entrada en la caché de roles.
//
// Uso: SEED_ADMIN_PASSWORD=... go run ./cmd/seed_admin admin@tienda.com "Nombre Apellido"
// Usa la misma configuración de base de datos que la API (DATABASE_URL o DB_*).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
	"github.com/jhoicas/Storefront-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Storefront-api/pkg/config"
	"github.com/jhoicas/Storefront-api/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed_admin <email> [nombre]")
		os.Exit(2)
	}
	email := cases.Fold().String(strings.TrimSpace(os.Args[1]))
	displayName := email
	if len(os.Args) > 2 {
		displayName = strings.TrimSpace(os.Args[2])
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD debe tener al menos 8 caracteres")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "seed_admin"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema de base de datos")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash de password")
	}

	now := time.Now()
	ident := entity.Identity{
		ID:            uuid.New().String(),
		Email:         email,
		DisplayName:   displayName,
		EmailVerified: true,
		CreatedAt:     now,
	}
	first, last := entity.SplitDisplayName(displayName)
	profile := &entity.Profile{
		ID:         ident.ID,
		IdentityID: ident.ID,
		Role:       entity.RoleSuperAdmin,
		FirstName:  first,
		LastName:   last,
		Email:      email,
		Status:     entity.StatusVerified,
		TotalSpent: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = postgres.NewTxRunner(pool).RunAccount(ctx, func(
		creds repository.CredentialStore,
		profiles repository.ProfileStore,
		roleCache repository.KeyValueStore,
	) error {
		if err := creds.CreateIdentity(ctx, &entity.Credential{Identity: ident, PasswordHash: string(hash)}); err != nil {
			return fmt.Errorf("crear identidad: %w", err)
		}
		if err := profiles.Insert(ctx, entity.PartitionSuperAdmins, ident.ID, profile); err != nil {
			return fmt.Errorf("crear perfil: %w", err)
		}
		return roleCache.Set(ctx, auth.RoleCacheKey(ident.ID), string(entity.RoleSuperAdmin))
	})
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("seed super_admin")
	}
	log.Info().Str("identity_id", ident.ID).Str("email", email).Msg("super_admin creado")
}
