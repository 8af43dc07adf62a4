package auth

import (
	"fmt"

	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// ErrorKind clasifica los errores que ve el consumidor del subsistema de auth.
type ErrorKind string

const (
	KindInvalidCredentials      ErrorKind = "INVALID_CREDENTIALS"
	KindRateLimited             ErrorKind = "RATE_LIMITED"
	KindRoleMismatch            ErrorKind = "ROLE_MISMATCH"
	KindAccountNotVerified      ErrorKind = "ACCOUNT_NOT_VERIFIED"
	KindAccountPendingApproval  ErrorKind = "ACCOUNT_PENDING_APPROVAL"
	KindAccountDeactivated      ErrorKind = "ACCOUNT_DEACTIVATED"
	KindProfileResolutionFailed ErrorKind = "PROFILE_RESOLUTION_FAILED"
	KindProviderUnavailable     ErrorKind = "PROVIDER_UNAVAILABLE"
	KindInvalidInput            ErrorKind = "VALIDATION"
	KindPermissionDenied        ErrorKind = "FORBIDDEN"
)

// AuthError error tipado que se devuelve dentro de los resultados (no se lanza).
// Message explica qué condición bloqueó el acceso y Remedy qué puede hacer el usuario.
type AuthError struct {
	Kind         ErrorKind
	Message      string
	Remedy       string
	WaitSeconds  int         // solo RateLimited
	ActualRole   entity.Role // solo RoleMismatch
	ExpectedRole entity.Role // solo RoleMismatch
	Err          error       // causa original, nunca se muestra al usuario
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

func errInvalidCredentials(cause error) *AuthError {
	return &AuthError{
		Kind:    KindInvalidCredentials,
		Message: "email o contraseña incorrectos",
		Remedy:  "revisa tus datos o restablece la contraseña",
		Err:     cause,
	}
}

func errRateLimited(waitSeconds int) *AuthError {
	return &AuthError{
		Kind:        KindRateLimited,
		Message:     fmt.Sprintf("demasiados intentos de inicio de sesión; espera %d segundos", waitSeconds),
		Remedy:      "vuelve a intentarlo cuando termine la espera",
		WaitSeconds: waitSeconds,
	}
}

func errRoleMismatch(actual, expected entity.Role) *AuthError {
	return &AuthError{
		Kind: KindRoleMismatch,
		Message: fmt.Sprintf("tu cuenta está registrada como %s, no como %s",
			actual.DisplayName(), expected.DisplayName()),
		Remedy:       fmt.Sprintf("inicia sesión desde el acceso de %s", actual.DisplayName()),
		ActualRole:   actual,
		ExpectedRole: expected,
	}
}

func errNotVerified() *AuthError {
	return &AuthError{
		Kind:    KindAccountNotVerified,
		Message: "tu email todavía no está verificado",
		Remedy:  "revisa tu bandeja de entrada o solicita un nuevo correo de verificación",
	}
}

func errPendingApproval() *AuthError {
	return &AuthError{
		Kind:    KindAccountPendingApproval,
		Message: "tu cuenta de Shop Manager está pendiente de aprobación",
		Remedy:  "un administrador debe aprobarla; te avisaremos por email",
	}
}

func errDeactivated() *AuthError {
	return &AuthError{
		Kind:    KindAccountDeactivated,
		Message: "tu cuenta está desactivada",
		Remedy:  "contacta a un administrador para reactivarla",
	}
}

func errInsufficientRole(actual, required entity.Role) *AuthError {
	return &AuthError{
		Kind: KindPermissionDenied,
		Message: fmt.Sprintf("esta sección requiere rol %s y tu cuenta es %s",
			required.DisplayName(), actual.DisplayName()),
		Remedy:       "contacta a un administrador si necesitas acceso",
		ActualRole:   actual,
		ExpectedRole: required,
	}
}

func errProviderUnavailable(cause error) *AuthError {
	return &AuthError{
		Kind:    KindProviderUnavailable,
		Message: "no pudimos comprobar tu sesión",
		Remedy:  "reintenta en unos segundos",
		Err:     cause,
	}
}

func errProfileResolution(cause error) *AuthError {
	return &AuthError{
		Kind:    KindProfileResolutionFailed,
		Message: "no pudimos cargar tu perfil; se usa un perfil provisional",
		Remedy:  "recarga la página más tarde",
		Err:     cause,
	}
}

func errAccountUnconfirmed(cause error) *AuthError {
	return &AuthError{
		Kind:    KindProfileResolutionFailed,
		Message: "no pudimos confirmar el estado de tu cuenta",
		Remedy:  "reintenta en unos segundos",
		Err:     cause,
	}
}

func errInvalidInput(msg string) *AuthError {
	return &AuthError{Kind: KindInvalidInput, Message: msg}
}
