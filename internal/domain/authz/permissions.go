package authz

import "github.com/jhoicas/Storefront-api/internal/domain/entity"

// Resource recurso protegido de la tienda.
type Resource string

const (
	ResourceAll        Resource = "*"
	ResourceProducts   Resource = "products"
	ResourceCategories Resource = "categories"
	ResourceOrders     Resource = "orders"
	ResourceCustomers  Resource = "customers"
	ResourceUsers      Resource = "users"
	ResourceProfile    Resource = "profile" // el perfil propio
	ResourceAnalytics  Resource = "analytics"
	ResourceSettings   Resource = "settings"
)

// Resources recursos concretos (sin el comodín), en orden estable.
var Resources = []Resource{
	ResourceProducts, ResourceCategories, ResourceOrders, ResourceCustomers,
	ResourceUsers, ResourceProfile, ResourceAnalytics, ResourceSettings,
}

// Action acción sobre un recurso.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Permission par (recurso, acción).
type Permission struct {
	Resource Resource
	Action   Action
}

// String formato "recurso:acción".
func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// Level nivel de permiso agregado de un rol sobre un recurso.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelManage
)

func (l Level) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelManage:
		return "manage"
	}
	return "none"
}

// MarshalText permite serializar el nivel como string en JSON.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func crud(r Resource) []Permission {
	return []Permission{{r, ActionRead}, {r, ActionWrite}, {r, ActionDelete}}
}

// rolePermissions es la única fuente de verdad de la matriz. Se compila, no se persiste.
var rolePermissions = map[entity.Role][]Permission{
	entity.RoleSuperAdmin: crud(ResourceAll),
	entity.RoleShopManager: concat(
		crud(ResourceProducts),
		crud(ResourceCategories),
		crud(ResourceOrders),
		[]Permission{
			{ResourceCustomers, ActionRead},
			{ResourceUsers, ActionRead},
			{ResourceAnalytics, ActionRead},
			{ResourceProfile, ActionRead},
			{ResourceProfile, ActionWrite},
		},
	),
	entity.RoleCustomer: {
		{ResourceProducts, ActionRead},
		{ResourceCategories, ActionRead},
		{ResourceProfile, ActionRead},
		{ResourceProfile, ActionWrite},
	},
}

func concat(groups ...[]Permission) []Permission {
	var out []Permission
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Can informa si el rol puede ejecutar la acción sobre el recurso.
// Primero mira los permisos comodín del rol y luego la pertenencia exacta.
func Can(role entity.Role, resource Resource, action Action) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p.Resource == ResourceAll && p.Action == action {
			return true
		}
	}
	for _, p := range perms {
		if p.Resource == resource && p.Action == action {
			return true
		}
	}
	return false
}

// PermissionLevel resume las acciones del rol sobre el recurso:
// delete+write → manage, write → write, read → read, nada → none.
func PermissionLevel(role entity.Role, resource Resource) Level {
	switch {
	case Can(role, resource, ActionWrite) && Can(role, resource, ActionDelete):
		return LevelManage
	case Can(role, resource, ActionWrite):
		return LevelWrite
	case Can(role, resource, ActionRead):
		return LevelRead
	}
	return LevelNone
}

// PermissionsForRole devuelve una copia de los permisos declarados del rol.
// nil para roles desconocidos.
func PermissionsForRole(role entity.Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Matrix nivel del rol sobre cada recurso concreto.
func Matrix(role entity.Role) map[Resource]Level {
	out := make(map[Resource]Level, len(Resources))
	for _, r := range Resources {
		out[r] = PermissionLevel(role, r)
	}
	return out
}
