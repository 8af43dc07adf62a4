package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

// PartitionDescriptor una partición y el rol que implica encontrar un documento en ella.
type PartitionDescriptor struct {
	Partition entity.Partition
	Role      entity.Role
}

// DefaultPartitions orden de búsqueda: admin primero para que una cuenta elevada nunca
// se confunda con un duplicado de menor privilegio.
var DefaultPartitions = []PartitionDescriptor{
	{Partition: entity.PartitionSuperAdmins, Role: entity.RoleSuperAdmin},
	{Partition: entity.PartitionShopManagers, Role: entity.RoleShopManager},
	{Partition: entity.PartitionCustomers, Role: entity.RoleCustomer},
}

// PartitionFailure consulta de partición que falló (distinto de "no encontrado").
type PartitionFailure struct {
	Partition entity.Partition
	Err       error
}

// Resolution resultado de recorrer las particiones.
type Resolution struct {
	Profile   *entity.Profile
	Partition entity.Partition
	Failures  []PartitionFailure // en orden de búsqueda
}

// Found hay un documento.
func (r Resolution) Found() bool { return r.Profile != nil }

// Partial el documento se encontró, pero una partición de mayor prioridad no respondió.
func (r Resolution) Partial() bool { return r.Found() && len(r.Failures) > 0 }

// Absent todas las particiones respondieron y ninguna tiene el documento.
func (r Resolution) Absent() bool { return !r.Found() && len(r.Failures) == 0 }

// Err primer fallo registrado, o nil.
func (r Resolution) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0].Err
}

// ResolveFirst recorre las particiones en orden y se detiene en la primera coincidencia.
// Una partición que falla se trata como "no encontrado" para seguir la búsqueda,
// pero queda registrada en Failures para no confundirla con una ausencia real.
func ResolveFirst(ctx context.Context, store repository.ProfileStore, partitions []PartitionDescriptor, identityID string, timeout time.Duration) Resolution {
	var res Resolution
	for _, pd := range partitions {
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, PartitionFailure{Partition: pd.Partition, Err: err})
			continue
		}
		qctx, cancel := context.WithTimeout(ctx, timeout)
		profile, err := store.FindOne(qctx, pd.Partition, identityID)
		cancel()
		if err != nil {
			res.Failures = append(res.Failures, PartitionFailure{Partition: pd.Partition, Err: err})
			continue
		}
		if profile == nil {
			continue
		}
		profile.Role = pd.Role
		res.Profile = profile
		res.Partition = pd.Partition
		return res
	}
	return res
}

// Resolver descubre qué partición es dueña de una identidad.
type Resolver struct {
	store      repository.ProfileStore
	partitions []PartitionDescriptor
	timeout    time.Duration
	log        zerolog.Logger
}

// NewResolver construye el resolver con el orden por defecto.
func NewResolver(store repository.ProfileStore, timeout time.Duration, log zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Resolver{store: store, partitions: DefaultPartitions, timeout: timeout, log: log}
}

// ResolveRole busca el perfil de la identidad.
func (r *Resolver) ResolveRole(ctx context.Context, identityID string) Resolution {
	res := ResolveFirst(ctx, r.store, r.partitions, identityID, r.timeout)
	for _, f := range res.Failures {
		r.log.Warn().Err(f.Err).
			Str("identity_id", identityID).
			Str("partition", string(f.Partition)).
			Msg("consulta de partición falló, se continúa la búsqueda")
	}
	return res
}
