package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// CredentialStore persistencia del proveedor de identidad local: identidades, sesiones y códigos de verificación.
type CredentialStore interface {
	// CreateIdentity devuelve domain.ErrEmailAlreadyExists si el email ya está registrado.
	CreateIdentity(ctx context.Context, cred *entity.Credential) error
	// FindByEmail devuelve (nil, nil) si no existe.
	FindByEmail(ctx context.Context, email string) (*entity.Credential, error)
	// FindIdentity devuelve (nil, nil) si no existe.
	FindIdentity(ctx context.Context, id string) (*entity.Identity, error)
	MarkEmailVerified(ctx context.Context, id string) error

	CreateSession(ctx context.Context, session *entity.Session) error
	// FindSession devuelve (nil, nil) si no existe o fue revocada.
	FindSession(ctx context.Context, id string) (*entity.Session, error)
	RevokeSession(ctx context.Context, id string) error

	SaveVerificationCode(ctx context.Context, code *entity.VerificationCode) error
	// ConsumeVerificationCode marca el código como usado y devuelve su identidad.
	// domain.ErrInvalidVerification si no existe, ya se usó o venció.
	ConsumeVerificationCode(ctx context.Context, code string, now time.Time) (string, error)
}
