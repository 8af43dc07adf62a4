package repository

import (
	"context"

	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// IdentityProvider define el puerto del proveedor de identidad (credenciales, sesiones, verificación).
//
// Errores esperados:
//   - domain.ErrInvalidCredentials: email o password incorrectos.
//   - domain.ErrTooManyRequests: el proveedor está limitando los intentos.
//   - domain.ErrUnauthorized: no hay sesión válida para el token.
//   - domain.ErrEmailAlreadyExists: al crear una cuenta con un email registrado.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (*entity.Identity, error)
	CreateSession(ctx context.Context, email, password string) (*entity.Session, error)
	CurrentUser(ctx context.Context, token string) (*entity.Identity, error)
	DestroySession(ctx context.Context, token string) error
	SendVerificationEmail(ctx context.Context, identityID string) error
	ConfirmVerification(ctx context.Context, code string) (*entity.Identity, error)
}
