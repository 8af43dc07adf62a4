package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
	"github.com/jhoicas/Storefront-api/internal/infrastructure/cache"
	"github.com/jhoicas/Storefront-api/internal/infrastructure/identity"
	"github.com/jhoicas/Storefront-api/internal/infrastructure/mailer"
	"github.com/jhoicas/Storefront-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Storefront-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Storefront-api/internal/interfaces/http"
	"github.com/jhoicas/Storefront-api/pkg/config"
	"github.com/jhoicas/Storefront-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("esquema de base de datos")
		}
	}

	profileRepo := postgres.NewProfileRepository(pool)
	credentialRepo := postgres.NewCredentialRepository(pool)

	var roleCache repository.KeyValueStore
	switch cfg.Auth.RoleCache {
	case "memory":
		roleCache = cache.NewMemoryStore()
	default:
		roleCache = postgres.NewRoleCacheRepository(pool)
	}

	recorder := metrics.NewAuthRecorder(prometheus.DefaultRegisterer)

	provider := identity.NewProvider(credentialRepo, mailer.New(cfg.Mail, log.Component("mailer")), identity.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		SessionTTL: time.Duration(cfg.JWT.Expiration) * time.Minute,
		VerifyURL:  cfg.Mail.VerifyURL,
		RPS:        cfg.Auth.ProviderRPS,
		Burst:      cfg.Auth.ProviderBurst,
	}, log.Component("identity"))

	limits := auth.NewRateLimits(auth.RateLimitConfig{
		Base:      cfg.Auth.BackoffBase,
		Max:       cfg.Auth.BackoffMax,
		IdleReset: cfg.Auth.IdleReset,
	}, nil)
	timeout := cfg.Auth.ProviderTimeout
	authLog := log.Component("auth")

	gateway := auth.NewGateway(provider, limits, timeout, authLog, recorder)
	resolver := auth.NewResolver(profileRepo, timeout, authLog)
	profiles := auth.NewProfileService(resolver, profileRepo, roleCache, timeout, authLog, recorder)
	authSvc := auth.NewService(auth.ServiceDeps{
		Gateway:  gateway,
		Provider: provider,
		Profiles: profiles,
		Store:    profileRepo,
		Timeout:  timeout,
		Log:      authLog,
		Metrics:  recorder,
	})
	accounts := auth.NewAccountService(profileRepo, resolver, timeout, log.Component("accounts"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Storefront API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Auth:     authSvc,
		Accounts: accounts,
		Metrics:  metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
