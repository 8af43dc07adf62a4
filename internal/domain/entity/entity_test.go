package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Shop_Manager ")
	assert.True(t, ok)
	assert.Equal(t, RoleShopManager, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestRole_PartitionRoundTrip(t *testing.T) {
	for _, r := range Roles {
		assert.Equal(t, r, r.Partition().Role(), "partición de %s", r)
	}
}

func TestRole_DefaultRoute(t *testing.T) {
	assert.Equal(t, "/account", RoleCustomer.DefaultRoute())
	assert.Equal(t, "/manager", RoleShopManager.DefaultRoute())
	assert.Equal(t, "/admin", RoleSuperAdmin.DefaultRoute())
}

func TestSplitDisplayName(t *testing.T) {
	cases := []struct {
		in, first, last string
	}{
		{"Ana María López Gómez", "Ana", "María López Gómez"},
		{"Cher", "Cher", ""},
		{"  ", "", ""},
		{"  Juan   Pérez ", "Juan", "Pérez"},
	}
	for _, c := range cases {
		first, last := SplitDisplayName(c.in)
		assert.Equal(t, c.first, first, c.in)
		assert.Equal(t, c.last, last, c.in)
	}
}

func TestParseAccountStatus(t *testing.T) {
	s, ok := ParseAccountStatus("pending")
	assert.True(t, ok)
	assert.Equal(t, StatusPending, s)
	_, ok = ParseAccountStatus("banned")
	assert.False(t, ok)
}
