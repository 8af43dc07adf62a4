package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
)

var _ repository.ProfileStore = (*ProfileRepo)(nil)

// partitionTables cada partición es una tabla con el mismo esquema.
// El nombre de tabla nunca sale del request: solo de este mapa.
var partitionTables = map[entity.Partition]string{
	entity.PartitionCustomers:    "customers",
	entity.PartitionShopManagers: "shop_managers",
	entity.PartitionSuperAdmins:  "super_admins",
}

const profileColumns = `id, identity_id, first_name, last_name, email, phone, status, avatar_url,
	total_orders, total_spent, created_at, updated_at`

// ProfileRepo implementación de ProfileStore sobre PostgreSQL (pool o tx).
type ProfileRepo struct {
	q Querier
}

// NewProfileRepository construye el adaptador de perfiles.
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

func tableFor(p entity.Partition) (string, error) {
	t, ok := partitionTables[p]
	if !ok {
		return "", fmt.Errorf("%w: partición desconocida %q", domain.ErrInvalidInput, p)
	}
	return t, nil
}

// FindOne busca el perfil por identity_id. (nil, nil) si no existe.
func (r *ProfileRepo) FindOne(ctx context.Context, partition entity.Partition, identityID string) (*entity.Profile, error) {
	table, err := tableFor(partition)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + profileColumns + ` FROM ` + table + `
		WHERE identity_id = $1 ORDER BY created_at LIMIT 1`
	p, err := scanProfile(r.q.QueryRow(ctx, query, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find profile in %s: %w", table, err)
	}
	p.Role = partition.Role()
	return p, nil
}

// Insert crea el documento con la clave dada; ErrDuplicate si ya existe.
func (r *ProfileRepo) Insert(ctx context.Context, partition entity.Partition, key string, p *entity.Profile) error {
	table, err := tableFor(partition)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + table + ` (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.q.Exec(ctx, query,
		key, p.IdentityID, p.FirstName, p.LastName, p.Email, p.Phone, string(p.Status), p.AvatarURL,
		p.TotalOrders, p.TotalSpent, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert profile in %s: %w", table, err)
	}
	return nil
}

// Update aplica solo los campos presentes en el patch y devuelve el documento resultante.
func (r *ProfileRepo) Update(ctx context.Context, partition entity.Partition, key string, patch entity.ProfilePatch) (*entity.Profile, error) {
	table, err := tableFor(partition)
	if err != nil {
		return nil, err
	}
	sets, args := patchAssignments(patch)
	args = append(args, key)
	query := `UPDATE ` + table + ` SET ` + strings.Join(sets, ", ") + `
		WHERE id = $` + fmt.Sprint(len(args)) + `
		RETURNING ` + profileColumns
	p, err := scanProfile(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update profile in %s: %w", table, err)
	}
	p.Role = partition.Role()
	return p, nil
}

// patchAssignments arma "col = $n" para cada campo no nil; updated_at siempre se toca.
func patchAssignments(patch entity.ProfilePatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	sets = append(sets, "updated_at = now()")
	return sets, args
}

func scanProfile(row pgxScanner) (*entity.Profile, error) {
	var (
		p      entity.Profile
		status string
	)
	err := row.Scan(
		&p.ID, &p.IdentityID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &status, &p.AvatarURL,
		&p.TotalOrders, &p.TotalSpent, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = entity.AccountStatus(status)
	return &p, nil
}
