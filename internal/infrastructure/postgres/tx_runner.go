package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunAccount inicia una transacción, ejecuta fn con los repos de identidades y perfiles
// atados a la tx y hace Commit o Rollback. Se usa para crear identidad y perfil juntos.
func (r *TxRunner) RunAccount(ctx context.Context, fn func(
	creds repository.CredentialStore,
	profiles repository.ProfileStore,
	cache repository.KeyValueStore,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCredentialRepository(tx), NewProfileRepository(tx), NewRoleCacheRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
