package entity

import "strings"

// Role es el rol autoritativo de una identidad. Existe exactamente uno por identidad.
type Role string

// Roles válidos, de menor a mayor privilegio.
const (
	RoleCustomer    Role = "customer"
	RoleShopManager Role = "shop_manager"
	RoleSuperAdmin  Role = "super_admin"
)

// Roles lista los roles en orden ascendente de jerarquía.
var Roles = []Role{RoleCustomer, RoleShopManager, RoleSuperAdmin}

// ParseRole convierte un string (de la DB, de la caché o de un request) en Role.
// Devuelve false si el valor no es un rol conocido.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleCustomer, RoleShopManager, RoleSuperAdmin:
		return r, true
	}
	return "", false
}

// Valid informa si el rol es uno de los tres conocidos.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Rank devuelve la posición en la jerarquía: customer=1, shop_manager=2, super_admin=3.
// Un rol desconocido vale 0 y no satisface ningún requisito.
func (r Role) Rank() int {
	switch r {
	case RoleCustomer:
		return 1
	case RoleShopManager:
		return 2
	case RoleSuperAdmin:
		return 3
	}
	return 0
}

// DisplayName nombre legible del rol, usado en mensajes al usuario.
func (r Role) DisplayName() string {
	switch r {
	case RoleCustomer:
		return "Customer"
	case RoleShopManager:
		return "Shop Manager"
	case RoleSuperAdmin:
		return "Super Admin"
	}
	return string(r)
}

// Partition devuelve la colección de perfiles que pertenece al rol.
func (r Role) Partition() Partition {
	switch r {
	case RoleShopManager:
		return PartitionShopManagers
	case RoleSuperAdmin:
		return PartitionSuperAdmins
	}
	return PartitionCustomers
}

// DefaultRoute ruta de aterrizaje del rol cuando se le niega otra ruta.
func (r Role) DefaultRoute() string {
	switch r {
	case RoleShopManager:
		return "/manager"
	case RoleSuperAdmin:
		return "/admin"
	}
	return "/account"
}

// Partition es una de las tres colecciones disjuntas de perfiles.
type Partition string

const (
	PartitionCustomers    Partition = "customers"
	PartitionShopManagers Partition = "shop_managers"
	PartitionSuperAdmins  Partition = "super_admins"
)

// ParsePartition valida el nombre de una partición.
func ParsePartition(s string) (Partition, bool) {
	p := Partition(strings.TrimSpace(s))
	switch p {
	case PartitionCustomers, PartitionShopManagers, PartitionSuperAdmins:
		return p, true
	}
	return "", false
}

// Role rol implícito de los documentos de la partición.
func (p Partition) Role() Role {
	switch p {
	case PartitionShopManagers:
		return RoleShopManager
	case PartitionSuperAdmins:
		return RoleSuperAdmin
	}
	return RoleCustomer
}

// AccountStatus estado de la cuenta de un perfil.
type AccountStatus string

const (
	// StatusPending solo tiene sentido para shop_manager: espera aprobación de un operador.
	StatusPending AccountStatus = "Pending"
	// StatusVerified es el estado por defecto de los customers.
	StatusVerified AccountStatus = "Verified"
	// StatusDeactivated revoca el acceso sin importar el rol.
	StatusDeactivated AccountStatus = "Deactivated"
	// StatusUnknown no se pudo leer el perfil; nunca se persiste ni autoriza.
	StatusUnknown AccountStatus = "Unknown"
)

// ParseAccountStatus acepta el valor sin importar mayúsculas.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, true
	case "verified":
		return StatusVerified, true
	case "deactivated":
		return StatusDeactivated, true
	}
	return "", false
}
