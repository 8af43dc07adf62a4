package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/authz"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

const minPasswordLength = 8

// SignInResult resultado tipado de SignIn: el caller debe revisar Success.
type SignInResult struct {
	Success bool
	Session *entity.Session
	Profile *ResolvedProfile
	Err     *AuthError
}

// SignUpInput datos de registro.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      entity.Role
}

// SessionView identidad actual más su perfil resuelto.
type SessionView struct {
	Identity *entity.Identity
	Profile  *ResolvedProfile
}

// GuardOptions opciones del guard de una ruta.
type GuardOptions struct {
	AllowedRoles             []entity.Role
	RequireEmailVerification bool
	Path                     string
	RedirectTo               string
}

// GuardResult lo que consume la capa de presentación para decidir si renderiza,
// redirige o muestra una pantalla intermedia.
type GuardResult struct {
	IsAuthenticated bool
	HasPermission   bool
	UserRole        entity.Role
	UserStatus      entity.AccountStatus
	IsLoading       bool
	State           GuardState
	Redirect        string
	Transient       bool
	LowConfidence   bool
	Err             *AuthError
}

// Service es la API de auth que usa el resto de la aplicación.
type Service struct {
	gateway  *Gateway
	provider repository.IdentityProvider
	profiles *ProfileService
	store    repository.ProfileStore
	timeout  time.Duration
	log      zerolog.Logger
	metrics  Recorder
}

// ServiceDeps dependencias del Service.
type ServiceDeps struct {
	Gateway  *Gateway
	Provider repository.IdentityProvider
	Profiles *ProfileService
	Store    repository.ProfileStore
	Timeout  time.Duration
	Log      zerolog.Logger
	Metrics  Recorder
}

// NewService construye el servicio de auth.
func NewService(d ServiceDeps) *Service {
	if d.Timeout <= 0 {
		d.Timeout = DefaultProviderTimeout
	}
	return &Service{
		gateway:  d.Gateway,
		provider: d.Provider,
		profiles: d.Profiles,
		store:    d.Store,
		timeout:  d.Timeout,
		log:      d.Log,
		metrics:  recorderOrNop(d.Metrics),
	}
}

// SignIn autentica y, si se indica expectedRole, exige que el rol resuelto coincida.
// Un rol distinto hace fallar el login: nunca se cambia de rol en silencio.
func (s *Service) SignIn(ctx context.Context, email, password string, expectedRole *entity.Role) SignInResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return SignInResult{Err: errInvalidInput("email y password son requeridos")}
	}
	if expectedRole != nil && !expectedRole.Valid() {
		return SignInResult{Err: errInvalidInput("expected_role inválido")}
	}

	gr := s.gateway.SignIn(ctx, email, password)
	if !gr.Success {
		return SignInResult{Err: gr.Err}
	}
	session := gr.Session

	identity, err := s.currentUser(ctx, session.Token)
	if err != nil {
		// Sin identidad no hay rol ni estado confiables: no se deja una sesión a medias.
		s.abort(ctx, session)
		s.log.Warn().Err(err).Str("identity_id", session.IdentityID).Msg("identidad no disponible tras el login")
		return SignInResult{Err: errProviderUnavailable(err)}
	}

	rp, err := s.profiles.EnsureProfile(ctx, identity)
	if err != nil {
		s.abort(ctx, session)
		return SignInResult{Err: errProfileResolution(err)}
	}
	if rp.Profile.Status == entity.StatusDeactivated {
		s.abort(ctx, session)
		return SignInResult{Err: errDeactivated()}
	}
	if !rp.StatusKnown() {
		// El rol de respaldo no alcanza para validar el estado ni el rol esperado.
		s.abort(ctx, session)
		s.log.Warn().Str("identity_id", identity.ID).Str("source", string(rp.Source)).
			Msg("login rechazado: no se pudo leer el perfil")
		var cause error
		if rp.Warning != nil {
			cause = rp.Warning.Err
		}
		return SignInResult{Err: errAccountUnconfirmed(cause)}
	}
	if expectedRole != nil && rp.Profile.Role != *expectedRole {
		s.abort(ctx, session)
		s.log.Info().Str("identity_id", identity.ID).
			Str("actual", string(rp.Profile.Role)).Str("expected", string(*expectedRole)).
			Msg("login rechazado por rol distinto al esperado")
		return SignInResult{Err: errRoleMismatch(rp.Profile.Role, *expectedRole)}
	}
	return SignInResult{Success: true, Session: session, Profile: rp}
}

// abort destruye la sesión recién creada; un fallo solo se registra.
func (s *Service) abort(ctx context.Context, session *entity.Session) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.provider.DestroySession(cctx, session.Token); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
		s.log.Error().Err(err).Str("identity_id", session.IdentityID).Msg("no se pudo destruir la sesión rechazada")
	}
}

// SignUp registra la identidad y su perfil en la partición del rol.
// customer queda Verified; shop_manager queda Pending hasta que un super_admin lo apruebe.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return errInvalidInput("email válido requerido")
	}
	if len(in.Password) < minPasswordLength {
		return errInvalidInput(fmt.Sprintf("password debe tener al menos %d caracteres", minPasswordLength))
	}
	if in.Role == "" {
		in.Role = entity.RoleCustomer
	}
	var status entity.AccountStatus
	switch in.Role {
	case entity.RoleCustomer:
		status = entity.StatusVerified
	case entity.RoleShopManager:
		status = entity.StatusPending
	default:
		return errInvalidInput("solo se puede registrar una cuenta customer o shop_manager")
	}

	displayName := strings.TrimSpace(in.FirstName + " " + in.LastName)
	identity, aerr := s.gateway.SignUp(ctx, in.Email, in.Password, displayName)
	if aerr != nil {
		return aerr
	}

	now := time.Now()
	profile := &entity.Profile{
		ID:         identity.ID,
		IdentityID: identity.ID,
		Role:       in.Role,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      identity.Email,
		Status:     status,
		TotalSpent: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.store.Insert(ictx, in.Role.Partition(), identity.ID, profile)
	cancel()
	if err != nil && !errors.Is(err, domain.ErrDuplicate) {
		// La identidad existe; el perfil se sintetiza en el próximo login.
		s.log.Error().Err(err).Str("identity_id", identity.ID).Msg("no se pudo crear el perfil del registro")
		return errProfileResolution(err)
	}
	s.profiles.remember(ctx, identity.ID, in.Role)

	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.provider.SendVerificationEmail(vctx, identity.ID); err != nil {
		s.log.Warn().Err(err).Str("identity_id", identity.ID).Msg("envío de email de verificación")
	}
	return nil
}

// SignOut destruye la sesión. Cerrar una sesión inexistente no es un error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.provider.DestroySession(cctx, token); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Current devuelve la identidad del token con su perfil.
// domain.ErrUnauthorized si no hay sesión; domain.ErrProviderUnavailable si no se pudo determinar.
func (s *Service) Current(ctx context.Context, token string) (*SessionView, error) {
	identity, err := s.currentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	rp, err := s.profiles.EnsureProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &SessionView{Identity: identity, Profile: rp}, nil
}

// Guard evalúa el acceso a una ruta para el token dado.
func (s *Service) Guard(ctx context.Context, token string, opts GuardOptions) GuardResult {
	in := GuardInput{Route: RouteRequirement(opts)}
	var rp *ResolvedProfile

	if token == "" {
		in.Session = SessionNone
	} else {
		view, err := s.Current(ctx, token)
		switch {
		case err == nil:
			in.Session = SessionPresent
			in.Identity = view.Identity
			in.Profile = view.Profile.Profile
			rp = view.Profile
		case errors.Is(err, domain.ErrUnauthorized):
			in.Session = SessionNone
		default:
			in.Session = SessionUnknown
		}
	}

	d := Decide(in)
	s.metrics.GuardDecision(d.State)

	res := GuardResult{
		IsAuthenticated: in.Session == SessionPresent,
		HasPermission:   d.State == StateAuthorized,
		IsLoading:       d.State == StateAuthenticating,
		State:           d.State,
		Redirect:        d.Redirect,
		Transient:       d.Transient,
		Err:             d.Reason,
	}
	if rp != nil {
		res.UserRole = rp.Profile.Role
		res.UserStatus = rp.Profile.Status
		res.LowConfidence = rp.LowConfidence()
	}
	return res
}

// ResendVerification vuelve a enviar el email de verificación de la sesión actual.
func (s *Service) ResendVerification(ctx context.Context, token string) error {
	identity, err := s.currentUser(ctx, token)
	if err != nil {
		return err
	}
	if identity.EmailVerified {
		return fmt.Errorf("%w: el email ya está verificado", domain.ErrConflict)
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.SendVerificationEmail(cctx, identity.ID)
}

// ConfirmVerification marca el email como verificado a partir del código enviado.
func (s *Service) ConfirmVerification(ctx context.Context, code string) (*entity.Identity, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInvalidVerification
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.ConfirmVerification(cctx, code)
}

// Permissions superficie de permisos para un rol.
func (s *Service) Permissions(role entity.Role) PermissionSet {
	return NewPermissionSet(role)
}

func (s *Service) currentUser(ctx context.Context, token string) (*entity.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrUnauthorized
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	identity, err := s.provider.CurrentUser(cctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return identity, nil
}

// PermissionSet permisos de un rol listos para la UI.
type PermissionSet struct {
	Role             entity.Role
	Levels           map[authz.Resource]authz.Level
	IsAdmin          bool
	IsManagerOrAbove bool
}

// NewPermissionSet arma el set a partir del modelo estático.
func NewPermissionSet(role entity.Role) PermissionSet {
	return PermissionSet{
		Role:             role,
		Levels:           authz.Matrix(role),
		IsAdmin:          authz.IsAdmin(role),
		IsManagerOrAbove: authz.IsManagerOrAbove(role),
	}
}

// Can delega en el modelo de autorización.
func (p PermissionSet) Can(resource authz.Resource, action authz.Action) bool {
	return authz.Can(p.Role, resource, action)
}

// PermissionLevel delega en el modelo de autorización.
func (p PermissionSet) PermissionLevel(resource authz.Resource) authz.Level {
	return authz.PermissionLevel(p.Role, resource)
}
