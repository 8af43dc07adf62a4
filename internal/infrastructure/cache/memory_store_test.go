package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "role_cache_u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "role_cache_u1", "customer"))
	require.NoError(t, s.Set(ctx, "role_cache_u1", "shop_manager"))

	v, ok, err := s.Get(ctx, "role_cache_u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shop_manager", v)
	assert.Equal(t, 1, s.Len())
}
