package repository

import (
	"context"

	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// ProfileStore define el puerto del almacén de documentos particionado por rol.
type ProfileStore interface {
	// FindOne busca por igualdad sobre identity_id dentro de la partición.
	// Devuelve (nil, nil) si no hay documento; un error solo si la consulta falló.
	FindOne(ctx context.Context, partition entity.Partition, identityID string) (*entity.Profile, error)
	// Insert crea el documento con la clave indicada. Devuelve domain.ErrDuplicate si la clave ya existe.
	Insert(ctx context.Context, partition entity.Partition, key string, profile *entity.Profile) error
	// Update aplica un patch parcial. Devuelve domain.ErrNotFound si la clave no existe.
	Update(ctx context.Context, partition entity.Partition, key string, patch entity.ProfilePatch) (*entity.Profile, error)
}
