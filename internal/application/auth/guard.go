package auth

import (
	"net/url"

	"github.com/jhoicas/Storefront-api/internal/domain/authz"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// GuardState estado del guard de acceso para una ruta.
type GuardState string

const (
	StateUnauthenticated   GuardState = "Unauthenticated"
	StateAuthenticating    GuardState = "Authenticating"
	StateNeedsVerification GuardState = "NeedsVerification"
	StatePendingApproval   GuardState = "PendingApproval"
	StateAuthorized        GuardState = "Authorized"
	StateDenied            GuardState = "Denied"
)

// Rutas de las pantallas intermedias.
const (
	SignInPath          = "/login"
	VerifyEmailPath     = "/verify-email"
	PendingApprovalPath = "/pending-approval"
)

// SessionCheck resultado de preguntarle al proveedor si hay sesión.
type SessionCheck int

const (
	SessionChecking SessionCheck = iota // consulta en vuelo
	SessionNone                         // determinado: no hay sesión
	SessionPresent                      // determinado: hay sesión
	SessionUnknown                      // no se pudo determinar (timeout, red)
)

// RouteRequirement lo que exige una ruta.
type RouteRequirement struct {
	AllowedRoles             []entity.Role // vacío = cualquier usuario autenticado
	RequireEmailVerification bool
	Path                     string // ruta pedida, se conserva para volver tras el login
	RedirectTo               string // página de login alternativa
}

// GuardInput todo lo que el guard necesita; no guarda memoria propia.
type GuardInput struct {
	Session  SessionCheck
	Identity *entity.Identity
	Profile  *entity.Profile
	Route    RouteRequirement
}

// GuardDecision estado resultante más a dónde redirigir y por qué.
type GuardDecision struct {
	State     GuardState
	Redirect  string
	Reason    *AuthError
	Transient bool // "no se pudo determinar", no forzar sign-out
}

// Decide reduce (sesión, perfil, requisito) a un estado del guard. Es pura y se puede
// recalcular en cada request.
func Decide(in GuardInput) GuardDecision {
	switch in.Session {
	case SessionChecking:
		return GuardDecision{State: StateAuthenticating}
	case SessionUnknown:
		return GuardDecision{State: StateAuthenticating, Transient: true, Reason: errProviderUnavailable(nil)}
	case SessionNone:
		return GuardDecision{State: StateUnauthenticated, Redirect: signInRedirect(in.Route)}
	}

	if in.Identity == nil || in.Profile == nil {
		// sesión presente pero el perfil todavía se está resolviendo
		return GuardDecision{State: StateAuthenticating}
	}
	profile := in.Profile

	if profile.Status == entity.StatusDeactivated {
		return GuardDecision{State: StateDenied, Redirect: SignInPath, Reason: errDeactivated()}
	}
	if profile.Status == entity.StatusUnknown {
		// perfil de respaldo: no se puede descartar Deactivated ni Pending
		return GuardDecision{State: StateAuthenticating, Transient: true, Reason: errAccountUnconfirmed(nil)}
	}
	if in.Route.RequireEmailVerification && !in.Identity.EmailVerified {
		return GuardDecision{State: StateNeedsVerification, Redirect: VerifyEmailPath, Reason: errNotVerified()}
	}
	if profile.Role == entity.RoleShopManager && profile.Status == entity.StatusPending {
		return GuardDecision{State: StatePendingApproval, Redirect: PendingApprovalPath, Reason: errPendingApproval()}
	}
	if required, ok := authz.MinimumRole(in.Route.AllowedRoles); ok && !authz.HasRoleOrHigher(profile.Role, required) {
		return GuardDecision{
			State:    StateDenied,
			Redirect: profile.Role.DefaultRoute(),
			Reason:   errInsufficientRole(profile.Role, required),
		}
	}
	return GuardDecision{State: StateAuthorized}
}

func signInRedirect(route RouteRequirement) string {
	base := route.RedirectTo
	if base == "" {
		base = SignInPath
	}
	if route.Path == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("redirect", route.Path)
	u.RawQuery = q.Encode()
	return u.String()
}
