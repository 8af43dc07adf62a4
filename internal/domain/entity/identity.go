package entity

import "time"

// Identity es la identidad del proveedor; inmutable desde el punto de vista de la autorización.
type Identity struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
	CreatedAt     time.Time
}

// Session sesión emitida por el proveedor de identidad.
type Session struct {
	ID         string
	IdentityID string
	Token      string
	ExpiresAt  time.Time
}

// Credential identidad más su hash de password; solo la maneja el proveedor local.
type Credential struct {
	Identity     Identity
	PasswordHash string
}

// VerificationCode código de un solo uso enviado por email.
type VerificationCode struct {
	Code       string
	IdentityID string
	ExpiresAt  time.Time
}
