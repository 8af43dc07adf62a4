package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

var _ repository.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo identidades, sesiones y códigos de verificación del proveedor local.
type CredentialRepo struct {
	q Querier
}

// NewCredentialRepository construye el adaptador.
func NewCredentialRepository(q Querier) *CredentialRepo {
	return &CredentialRepo{q: q}
}

// CreateIdentity persiste la identidad con su hash.
func (r *CredentialRepo) CreateIdentity(ctx context.Context, cred *entity.Credential) error {
	query := `
		INSERT INTO identities (id, email, password_hash, display_name, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	id := cred.Identity
	_, err := r.q.Exec(ctx, query, id.ID, id.Email, cred.PasswordHash, id.DisplayName, id.EmailVerified, id.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// FindByEmail el email ya viene normalizado por el proveedor.
func (r *CredentialRepo) FindByEmail(ctx context.Context, email string) (*entity.Credential, error) {
	query := `
		SELECT id, email, display_name, email_verified, created_at, password_hash
		FROM identities WHERE email = $1`
	var c entity.Credential
	err := r.q.QueryRow(ctx, query, email).Scan(
		&c.Identity.ID, &c.Identity.Email, &c.Identity.DisplayName, &c.Identity.EmailVerified,
		&c.Identity.CreatedAt, &c.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity by email: %w", err)
	}
	return &c, nil
}

// FindIdentity obtiene la identidad por ID.
func (r *CredentialRepo) FindIdentity(ctx context.Context, id string) (*entity.Identity, error) {
	query := `
		SELECT id, email, display_name, email_verified, created_at
		FROM identities WHERE id = $1`
	var i entity.Identity
	err := r.q.QueryRow(ctx, query, id).Scan(&i.ID, &i.Email, &i.DisplayName, &i.EmailVerified, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity by id: %w", err)
	}
	return &i, nil
}

// MarkEmailVerified pone email_verified en true.
func (r *CredentialRepo) MarkEmailVerified(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE identities SET email_verified = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("verify identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateSession registra la sesión; el token no se guarda, solo su ID.
func (r *CredentialRepo) CreateSession(ctx context.Context, s *entity.Session) error {
	query := `
		INSERT INTO sessions (id, identity_id, expires_at, created_at)
		VALUES ($1, $2, $3, now())`
	if _, err := r.q.Exec(ctx, query, s.ID, s.IdentityID, s.ExpiresAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindSession devuelve la sesión si existe y no fue revocada.
func (r *CredentialRepo) FindSession(ctx context.Context, id string) (*entity.Session, error) {
	query := `
		SELECT id, identity_id, expires_at
		FROM sessions WHERE id = $1 AND revoked_at IS NULL`
	var s entity.Session
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.IdentityID, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// RevokeSession marca la sesión como revocada. Revocar dos veces no es error.
func (r *CredentialRepo) RevokeSession(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// SaveVerificationCode guarda un código nuevo.
func (r *CredentialRepo) SaveVerificationCode(ctx context.Context, v *entity.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (code, identity_id, expires_at, created_at)
		VALUES ($1, $2, $3, now())`
	if _, err := r.q.Exec(ctx, query, v.Code, v.IdentityID, v.ExpiresAt); err != nil {
		return fmt.Errorf("insert verification code: %w", err)
	}
	return nil
}

// ConsumeVerificationCode usa el código en una sola sentencia para que no se pueda usar dos veces.
func (r *CredentialRepo) ConsumeVerificationCode(ctx context.Context, code string, now time.Time) (string, error) {
	query := `
		UPDATE verification_codes SET used_at = $2
		WHERE code = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING identity_id`
	var identityID string
	err := r.q.QueryRow(ctx, query, code, now).Scan(&identityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrInvalidVerification
		}
		return "", fmt.Errorf("consume verification code: %w", err)
	}
	return identityID, nil
}
