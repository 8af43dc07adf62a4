package authz

import "github.com/jhoicas/Storefront-api/internal/domain/entity"

// HasRoleOrHigher informa si actual satisface el requisito required según el rango.
// Un rol desconocido nunca satisface nada.
func HasRoleOrHigher(actual, required entity.Role) bool {
	if actual.Rank() == 0 {
		return false
	}
	return actual.Rank() >= required.Rank()
}

// IsAdmin true solo para super_admin.
func IsAdmin(role entity.Role) bool {
	return role == entity.RoleSuperAdmin
}

// IsManagerOrAbove true para shop_manager y super_admin.
func IsManagerOrAbove(role entity.Role) bool {
	return HasRoleOrHigher(role, entity.RoleShopManager)
}

// MinimumRole devuelve el rol de menor rango de la lista, que es el que decide
// el acceso a una ruta con varios roles permitidos. false si la lista no tiene roles válidos.
func MinimumRole(roles []entity.Role) (entity.Role, bool) {
	var (
		lowest entity.Role
		found  bool
	)
	for _, r := range roles {
		if !r.Valid() {
			continue
		}
		if !found || r.Rank() < lowest.Rank() {
			lowest, found = r, true
		}
	}
	return lowest, found
}
