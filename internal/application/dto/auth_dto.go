package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignInRequest cuerpo de POST /api/auth/signin.
type SignInRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	ExpectedRole string `json:"expected_role,omitempty"` // customer, shop_manager, super_admin
}

// SignInResponse token de sesión más el perfil resuelto.
type SignInResponse struct {
	Token         string           `json:"token,omitempty"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
	Profile       *ProfileResponse `json:"profile,omitempty"`
	Source        string           `json:"source,omitempty"`
	LowConfidence bool             `json:"low_confidence"`
}

// SignUpRequest cuerpo de POST /api/auth/signup.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role,omitempty"` // customer (default) o shop_manager
}

// SignUpResponse respuesta del registro.
type SignUpResponse struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// IdentityResponse identidad del proveedor.
type IdentityResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfileResponse perfil de cualquier partición.
type ProfileResponse struct {
	ID          string          `json:"id"`
	IdentityID  string          `json:"identity_id"`
	Role        string          `json:"role"`
	RoleName    string          `json:"role_name"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	Status      string          `json:"status"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	TotalOrders int             `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MeResponse GET /api/auth/me.
type MeResponse struct {
	Identity      IdentityResponse   `json:"identity"`
	Profile       ProfileResponse    `json:"profile"`
	Source        string             `json:"source"`
	LowConfidence bool               `json:"low_confidence"`
	Warning       *AuthErrorResponse `json:"warning,omitempty"`
}

// AuthErrorResponse error tipado de auth: qué bloqueó el acceso y qué puede hacer el usuario.
type AuthErrorResponse struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Remedy       string `json:"remedy,omitempty"`
	WaitSeconds  int    `json:"wait_seconds,omitempty"`
	ActualRole   string `json:"actual_role,omitempty"`
	ExpectedRole string `json:"expected_role,omitempty"`
}

// GuardResponse GET /api/auth/guard.
type GuardResponse struct {
	IsAuthenticated bool               `json:"is_authenticated"`
	HasPermission   bool               `json:"has_permission"`
	UserRole        string             `json:"user_role,omitempty"`
	UserStatus      string             `json:"user_status,omitempty"`
	IsLoading       bool               `json:"is_loading"`
	State           string             `json:"state"`
	Redirect        string             `json:"redirect,omitempty"`
	Transient       bool               `json:"transient,omitempty"`
	LowConfidence   bool               `json:"low_confidence,omitempty"`
	Error           *AuthErrorResponse `json:"error,omitempty"`
}

// PermissionsResponse GET /api/auth/permissions.
type PermissionsResponse struct {
	Role             string            `json:"role"`
	IsAdmin          bool              `json:"is_admin"`
	IsManagerOrAbove bool              `json:"is_manager_or_above"`
	Levels           map[string]string `json:"levels"`
	Permissions      []string          `json:"permissions"`
}

// UpdateProfileRequest PATCH /api/me/profile; los campos ausentes no se tocan.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Status    *string `json:"status,omitempty"` // no editable; se rechaza si viene
}
