package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

func TestPatchAssignments_SoloCamposPresentes(t *testing.T) {
	first := "Ana"
	status := entity.StatusDeactivated

	sets, args := patchAssignments(entity.ProfilePatch{FirstName: &first, Status: &status})

	assert.Equal(t, []string{"first_name = $1", "status = $2", "updated_at = now()"}, sets)
	assert.Equal(t, []any{"Ana", "Deactivated"}, args)
}

func TestPatchAssignments_Vacio(t *testing.T) {
	sets, args := patchAssignments(entity.ProfilePatch{})
	assert.Equal(t, []string{"updated_at = now()"}, sets)
	assert.Empty(t, args)
}

func TestTableFor_SoloParticionesConocidas(t *testing.T) {
	for p, table := range partitionTables {
		got, err := tableFor(p)
		require.NoError(t, err)
		assert.Equal(t, table, got)
	}
	_, err := tableFor(entity.Partition("users; DROP TABLE customers"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}
