package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Profile documento de perfil que vive en exactamente una partición.
// ID es la clave del documento y coincide con IdentityID.
type Profile struct {
	ID          string
	IdentityID  string // referencia a la identidad del proveedor (no se posee)
	Role        Role   // implícito por la partición de origen
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Status      AccountStatus
	AvatarURL   string
	TotalOrders int
	TotalSpent  decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName nombre completo para mostrar.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ProfilePatch cambios parciales sobre un perfil; los campos nil no se tocan.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	AvatarURL *string
	Status    *AccountStatus
}

// Empty informa si el patch no cambia nada.
func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.AvatarURL == nil && p.Status == nil
}

// SplitDisplayName separa un nombre para mostrar: el primer token es el nombre y el resto el apellido.
func SplitDisplayName(displayName string) (first, last string) {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
