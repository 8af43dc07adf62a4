package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/authz"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

// Actor quién ejecuta una operación administrativa.
type Actor struct {
	IdentityID string
	Role       entity.Role
}

// AccountService operaciones sobre el estado de las cuentas (aprobación, desactivación, perfil propio).
type AccountService struct {
	store    repository.ProfileStore
	resolver *Resolver
	timeout  time.Duration
	log      zerolog.Logger
}

// NewAccountService construye el servicio.
func NewAccountService(store repository.ProfileStore, resolver *Resolver, timeout time.Duration, log zerolog.Logger) *AccountService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &AccountService{store: store, resolver: resolver, timeout: timeout, log: log}
}

// Approve pasa un shop_manager de Pending a Verified.
func (s *AccountService) Approve(ctx context.Context, actor Actor, identityID string) (*entity.Profile, error) {
	if !authz.Can(actor.Role, authz.ResourceUsers, authz.ActionWrite) {
		return nil, domain.ErrForbidden
	}
	if identityID == "" {
		return nil, fmt.Errorf("%w: identity_id requerido", domain.ErrInvalidInput)
	}

	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	current, err := s.store.FindOne(fctx, entity.PartitionShopManagers, identityID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if current.Status != entity.StatusPending {
		return nil, fmt.Errorf("%w: la cuenta está en estado %s", domain.ErrConflict, current.Status)
	}

	status := entity.StatusVerified
	uctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	updated, err := s.store.Update(uctx, entity.PartitionShopManagers, current.ID, entity.ProfilePatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}
	updated.Role = entity.RoleShopManager
	s.log.Info().Str("actor", actor.IdentityID).Str("identity_id", identityID).Msg("shop manager aprobado")
	return updated, nil
}

// Deactivate revoca el acceso de una cuenta de cualquier rol. Un actor no puede desactivarse a sí mismo.
func (s *AccountService) Deactivate(ctx context.Context, actor Actor, identityID string) (*entity.Profile, error) {
	if !authz.Can(actor.Role, authz.ResourceUsers, authz.ActionDelete) {
		return nil, domain.ErrForbidden
	}
	if identityID == "" {
		return nil, fmt.Errorf("%w: identity_id requerido", domain.ErrInvalidInput)
	}
	if identityID == actor.IdentityID {
		return nil, fmt.Errorf("%w: no puedes desactivar tu propia cuenta", domain.ErrConflict)
	}

	res := s.resolver.ResolveRole(ctx, identityID)
	if !res.Found() {
		if res.Absent() {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("deactivate: %w", res.Err())
	}

	status := entity.StatusDeactivated
	uctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	updated, err := s.store.Update(uctx, res.Partition, res.Profile.ID, entity.ProfilePatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("deactivate: %w", err)
	}
	updated.Role = res.Partition.Role()
	s.log.Info().Str("actor", actor.IdentityID).Str("identity_id", identityID).
		Str("partition", string(res.Partition)).Msg("cuenta desactivada")
	return updated, nil
}

// UpdateOwnProfile aplica cambios del usuario sobre su propio perfil. El estado no es editable.
func (s *AccountService) UpdateOwnProfile(ctx context.Context, actor Actor, patch entity.ProfilePatch) (*entity.Profile, error) {
	if !authz.Can(actor.Role, authz.ResourceProfile, authz.ActionWrite) {
		return nil, domain.ErrForbidden
	}
	if patch.Status != nil {
		return nil, fmt.Errorf("%w: el estado de la cuenta no se puede editar", domain.ErrInvalidInput)
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no hay cambios", domain.ErrInvalidInput)
	}

	partition := actor.Role.Partition()
	uctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	updated, err := s.store.Update(uctx, partition, actor.IdentityID, patch)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	updated.Role = actor.Role
	return updated, nil
}
