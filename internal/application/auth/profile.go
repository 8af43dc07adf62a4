package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

// ProfileSource de dónde salió un perfil resuelto.
type ProfileSource string

const (
	SourceLive        ProfileSource = "live"        // coincidencia en una partición
	SourceSynthesized ProfileSource = "synthesized" // creado ahora en customers
	SourceCached      ProfileSource = "cached"      // rol tomado de la caché local
	SourceMinimal     ProfileSource = "minimal"     // perfil en memoria, no persistido
)

// RoleCacheKey clave de la caché local de roles.
func RoleCacheKey(identityID string) string {
	return "role_cache_" + identityID
}

// ResolvedProfile perfil más su nivel de confianza.
type ResolvedProfile struct {
	Profile *entity.Profile
	Source  ProfileSource
	Partial bool       // hubo particiones de mayor prioridad que no respondieron
	Warning *AuthError // causa de la degradación, si la hubo
}

// LowConfidence true cuando el rol no viene de una partición (caché o perfil mínimo).
func (r *ResolvedProfile) LowConfidence() bool {
	return r.Source == SourceCached || r.Source == SourceMinimal
}

// StatusKnown false si el estado de la cuenta no se pudo leer. Un perfil así
// nunca autoriza ni sirve para comparar roles.
func (r *ResolvedProfile) StatusKnown() bool {
	return r.Profile != nil && r.Profile.Status != entity.StatusUnknown
}

// ProfileService garantiza que toda identidad autenticada tenga un perfil.
type ProfileService struct {
	resolver *Resolver
	store    repository.ProfileStore
	cache    repository.KeyValueStore
	timeout  time.Duration
	log      zerolog.Logger
	metrics  Recorder
	now      func() time.Time

	// una sola resolución en vuelo por identidad
	flight singleflight.Group
}

// NewProfileService construye el servicio. cache puede ser nil (sin fallback).
func NewProfileService(resolver *Resolver, store repository.ProfileStore, cache repository.KeyValueStore, timeout time.Duration, log zerolog.Logger, metrics Recorder) *ProfileService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &ProfileService{
		resolver: resolver,
		store:    store,
		cache:    cache,
		timeout:  timeout,
		log:      log,
		metrics:  recorderOrNop(metrics),
		now:      time.Now,
	}
}

// EnsureProfile devuelve el perfil de la identidad, creándolo como customer si no existe.
// Nunca devuelve un perfil nil con error nil; los fallos del store se degradan a la caché
// o a un perfil mínimo en memoria.
func (s *ProfileService) EnsureProfile(ctx context.Context, identity *entity.Identity) (*ResolvedProfile, error) {
	if identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("%w: identidad requerida", domain.ErrInvalidInput)
	}
	// La resolución compartida no hereda la cancelación de quien la inició: los demás
	// callers unidos al mismo vuelo siguen esperando su resultado. Cada llamada al
	// store ya lleva su propio timeout.
	ch := s.flight.DoChan(identity.ID, func() (interface{}, error) {
		return s.ensure(context.WithoutCancel(ctx), identity), nil
	})
	select {
	case r := <-ch:
		rp := r.Val.(*ResolvedProfile)
		s.metrics.Resolution(rp.Source)
		return rp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *ProfileService) ensure(ctx context.Context, identity *entity.Identity) *ResolvedProfile {
	res := s.resolver.ResolveRole(ctx, identity.ID)
	if res.Found() {
		s.remember(ctx, identity.ID, res.Profile.Role)
		return &ResolvedProfile{Profile: res.Profile, Source: SourceLive, Partial: res.Partial()}
	}
	if !res.Absent() {
		// Alguna partición no respondió: no se puede afirmar que el perfil no existe,
		// así que no se crea nada.
		return s.degraded(ctx, identity, res.Err())
	}
	return s.synthesize(ctx, identity)
}

func (s *ProfileService) synthesize(ctx context.Context, identity *entity.Identity) *ResolvedProfile {
	profile := defaultCustomerProfile(identity, s.now())

	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.store.Insert(ictx, entity.PartitionCustomers, identity.ID, profile)
	cancel()
	switch {
	case err == nil:
		s.log.Info().Str("identity_id", identity.ID).Msg("perfil customer creado por defecto")
		s.remember(ctx, identity.ID, entity.RoleCustomer)
		return &ResolvedProfile{Profile: profile, Source: SourceSynthesized}
	case errors.Is(err, domain.ErrDuplicate):
		// Otro intento ya lo creó con la misma clave: se usa ese documento.
		fctx, cancel := context.WithTimeout(ctx, s.timeout)
		existing, ferr := s.store.FindOne(fctx, entity.PartitionCustomers, identity.ID)
		cancel()
		if ferr == nil && existing != nil {
			existing.Role = entity.RoleCustomer
			s.remember(ctx, identity.ID, entity.RoleCustomer)
			return &ResolvedProfile{Profile: existing, Source: SourceLive}
		}
		if ferr == nil {
			ferr = err
		}
		return s.degraded(ctx, identity, ferr)
	default:
		// Todas las particiones respondieron que no hay perfil: es un customer nuevo
		// aunque el insert haya fallado.
		s.log.Warn().Err(err).Str("identity_id", identity.ID).
			Msg("no se pudo persistir el perfil customer, se usa uno en memoria")
		return &ResolvedProfile{Profile: profile, Source: SourceMinimal, Warning: errProfileResolution(err)}
	}
}

// degraded se usa cuando no se pudo leer el perfil. Informa el rol cacheado (o customer)
// con estado Unknown: el rol es orientativo y el estado real no se conoce.
func (s *ProfileService) degraded(ctx context.Context, identity *entity.Identity, cause error) *ResolvedProfile {
	warning := errProfileResolution(cause)
	if role, ok := s.GetCachedRole(ctx, identity.ID); ok {
		s.log.Warn().Err(cause).Str("identity_id", identity.ID).Str("role", string(role)).
			Msg("resolución de perfil degradada a la caché de roles")
		p := unknownProfile(identity, role, s.now())
		return &ResolvedProfile{Profile: p, Source: SourceCached, Warning: warning}
	}
	s.log.Warn().Err(cause).Str("identity_id", identity.ID).
		Msg("resolución de perfil degradada a perfil mínimo en memoria")
	p := unknownProfile(identity, entity.RoleCustomer, s.now())
	return &ResolvedProfile{Profile: p, Source: SourceMinimal, Warning: warning}
}

// GetCachedRole lee el último rol conocido. Es solo consultivo y nunca reemplaza
// una resolución en vivo exitosa.
func (s *ProfileService) GetCachedRole(ctx context.Context, identityID string) (entity.Role, bool) {
	if s.cache == nil || identityID == "" {
		return "", false
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, ok, err := s.cache.Get(cctx, RoleCacheKey(identityID))
	if err != nil {
		s.log.Warn().Err(err).Str("identity_id", identityID).Msg("lectura de caché de roles")
		return "", false
	}
	if !ok {
		return "", false
	}
	return entity.ParseRole(raw)
}

// remember escribe la caché de forma oportunista; un fallo solo se registra.
func (s *ProfileService) remember(ctx context.Context, identityID string, role entity.Role) {
	if s.cache == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cache.Set(cctx, RoleCacheKey(identityID), string(role)); err != nil {
		s.log.Warn().Err(err).Str("identity_id", identityID).Msg("escritura de caché de roles")
	}
}

func defaultCustomerProfile(identity *entity.Identity, now time.Time) *entity.Profile {
	first, last := entity.SplitDisplayName(identity.DisplayName)
	return &entity.Profile{
		ID:          identity.ID,
		IdentityID:  identity.ID,
		Role:        entity.RoleCustomer,
		FirstName:   first,
		LastName:    last,
		Email:       identity.Email,
		Status:      entity.StatusVerified,
		TotalOrders: 0,
		TotalSpent:  decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func unknownProfile(identity *entity.Identity, role entity.Role, now time.Time) *entity.Profile {
	p := defaultCustomerProfile(identity, now)
	p.Role = role
	p.Status = entity.StatusUnknown
	return p
}
