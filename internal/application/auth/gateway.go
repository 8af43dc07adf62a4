package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

// DefaultProviderTimeout límite de cada llamada al proveedor o al store.
const DefaultProviderTimeout = 10 * time.Second

// GatewayResult resultado tipado de un intento; Err es nil si Success.
type GatewayResult struct {
	Success bool
	Session *entity.Session
	Err     *AuthError
}

// Operaciones del gateway, usadas como etiqueta de métricas.
const (
	opSignIn = "signin"
	opSignUp = "signup"
)

// Gateway envuelve las llamadas de sign-in/sign-up al proveedor con throttling exponencial
// por email.
type Gateway struct {
	provider repository.IdentityProvider
	limits   *RateLimits
	timeout  time.Duration
	log      zerolog.Logger
	metrics  Recorder
}

// NewGateway construye el gateway. limits es propio de esta instancia.
func NewGateway(provider repository.IdentityProvider, limits *RateLimits, timeout time.Duration, log zerolog.Logger, metrics Recorder) *Gateway {
	if limits == nil {
		limits = NewRateLimits(DefaultRateLimitConfig, nil)
	}
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Gateway{provider: provider, limits: limits, timeout: timeout, log: log, metrics: recorderOrNop(metrics)}
}

// limitKey clave de throttling: el email sin espacios ni mayúsculas.
func limitKey(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// SignIn consulta el estado de throttling del email antes de contactar al proveedor.
// Solo una respuesta "demasiados intentos" afecta los contadores.
func (g *Gateway) SignIn(ctx context.Context, email, password string) GatewayResult {
	key := limitKey(email)
	if remaining, limited := g.limits.Check(key); limited {
		g.metrics.Attempt(opSignIn, "blocked")
		return GatewayResult{Err: errRateLimited(waitSeconds(remaining))}
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	session, err := g.provider.CreateSession(cctx, email, password)
	if err == nil {
		g.limits.Reset(key)
		g.metrics.Attempt(opSignIn, "success")
		return GatewayResult{Success: true, Session: session}
	}
	return GatewayResult{Err: g.classify(opSignIn, key, err)}
}

// SignUp crea la cuenta en el proveedor con la misma política de throttling que SignIn.
func (g *Gateway) SignUp(ctx context.Context, email, password, displayName string) (*entity.Identity, *AuthError) {
	key := limitKey(email)
	if remaining, limited := g.limits.Check(key); limited {
		g.metrics.Attempt(opSignUp, "blocked")
		return nil, errRateLimited(waitSeconds(remaining))
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	identity, err := g.provider.CreateAccount(cctx, email, password, displayName)
	if err == nil {
		g.limits.Reset(key)
		g.metrics.Attempt(opSignUp, "success")
		return identity, nil
	}
	if errors.Is(err, domain.ErrEmailAlreadyExists) {
		g.metrics.Attempt(opSignUp, "duplicate")
		return nil, &AuthError{Kind: KindInvalidInput, Message: "el email ya está registrado", Remedy: "inicia sesión o recupera tu contraseña", Err: err}
	}
	return nil, g.classify(opSignUp, key, err)
}

func (g *Gateway) classify(op, key string, err error) *AuthError {
	switch {
	case errors.Is(err, domain.ErrTooManyRequests):
		backoff := g.limits.RecordThrottled(key)
		g.metrics.Attempt(op, "throttled")
		g.metrics.Throttled(backoff)
		g.log.Info().Str("op", op).Dur("backoff", backoff).Int("attempts", g.limits.Attempts(key)).
			Msg("proveedor limitó el intento")
		return errRateLimited(waitSeconds(backoff))
	case errors.Is(err, domain.ErrInvalidCredentials):
		g.metrics.Attempt(op, "invalid_credentials")
		return errInvalidCredentials(err)
	default:
		g.metrics.Attempt(op, "error")
		g.log.Error().Err(err).Str("op", op).Msg("fallo del proveedor de identidad")
		return errProviderUnavailable(err)
	}
}
