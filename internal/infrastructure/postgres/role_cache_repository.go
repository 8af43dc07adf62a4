package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

var _ repository.KeyValueStore = (*RoleCacheRepo)(nil)

// RoleCacheRepo caché de roles en la tabla role_cache (clave/valor).
type RoleCacheRepo struct {
	q Querier
}

// NewRoleCacheRepository construye el adaptador.
func NewRoleCacheRepository(q Querier) *RoleCacheRepo {
	return &RoleCacheRepo{q: q}
}

// Get lee la clave.
func (r *RoleCacheRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.q.QueryRow(ctx, `SELECT value FROM role_cache WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get role_cache: %w", err)
	}
	return value, true, nil
}

// Set escribe o reemplaza la clave.
func (r *RoleCacheRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO role_cache (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert role_cache: %w", err)
	}
	return nil
}
