package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/application/dto"
	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/authz"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// Locals keys que deja AuthMiddleware en Fiber.
const (
	LocalToken         = "token"
	LocalIdentityID    = "identity_id"
	LocalEmail         = "email"
	LocalEmailVerified = "email_verified"
	LocalRole          = "role"
	LocalStatus        = "status"
	LocalLowConfidence = "low_confidence"
	LocalSession       = "session_view"
)

// sessionReader es lo mínimo que necesita el middleware. Lo implementa *auth.Service.
type sessionReader interface {
	Current(ctx context.Context, token string) (*auth.SessionView, error)
}

// bearerToken extrae el token del header Authorization. code vacío si es válido.
func bearerToken(c *fiber.Ctx) (token, code, msg string) {
	header := c.Get("Authorization")
	if header == "" {
		return "", "MISSING_TOKEN", "Authorization header requerido"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "INVALID_TOKEN", "formato: Bearer <token>"
	}
	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "MISSING_TOKEN", "token vacío"
	}
	return token, "", ""
}

// AuthMiddleware valida el Bearer token contra el proveedor de identidad, resuelve el perfil
// y deja identidad, rol y estado en c.Locals.
//   - 401 → sin token o sesión inexistente.
//   - 503 → no se pudo determinar la sesión (proveedor caído o lento).
func AuthMiddleware(reader sessionReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, code, msg := bearerToken(c)
		if code != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
		}
		view, err := reader.Current(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
			}
			c.Set(fiber.HeaderRetryAfter, "5")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    string(auth.KindProviderUnavailable),
				Message: "no se pudo verificar la sesión, intente más tarde",
			})
		}
		profile := view.Profile.Profile
		c.Locals(LocalToken, token)
		c.Locals(LocalIdentityID, view.Identity.ID)
		c.Locals(LocalEmail, view.Identity.Email)
		c.Locals(LocalEmailVerified, view.Identity.EmailVerified)
		c.Locals(LocalRole, string(profile.Role))
		c.Locals(LocalStatus, string(profile.Status))
		c.Locals(LocalLowConfidence, view.Profile.LowConfidence())
		c.Locals(LocalSession, view)
		return c.Next()
	}
}

// RequireRole permite el paso si el rol del usuario alcanza el menor de los roles indicados.
// Una cuenta desactivada nunca pasa; una de estado desconocido recibe 503.
// Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(allowed ...entity.Role) fiber.Handler {
	minimum, restricted := authz.MinimumRole(allowed)
	return func(c *fiber.Ctx) error {
		role, ok := entity.ParseRole(GetRole(c))
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol no encontrado en la sesión"})
		}
		if GetStatus(c) == string(entity.StatusDeactivated) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: string(auth.KindAccountDeactivated), Message: "tu cuenta está desactivada"})
		}
		if unconfirmed(c) {
			return unconfirmedResponse(c)
		}
		if restricted && !authz.HasRoleOrHigher(role, minimum) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "esta sección requiere rol " + minimum.DisplayName(),
			})
		}
		return c.Next()
	}
}

// RequirePermission exige la acción sobre el recurso según la matriz de permisos.
func RequirePermission(resource authz.Resource, action authz.Action) fiber.Handler {
	perm := authz.Permission{Resource: resource, Action: action}
	return func(c *fiber.Ctx) error {
		if unconfirmed(c) {
			return unconfirmedResponse(c)
		}
		role, _ := entity.ParseRole(GetRole(c))
		if !authz.Can(role, resource, action) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "permiso requerido: " + perm.String(),
			})
		}
		return c.Next()
	}
}

// unconfirmed true si el perfil de la sesión vino de un respaldo (rol cacheado o mínimo)
// y su estado no se conoce.
func unconfirmed(c *fiber.Ctx) bool {
	return GetStatus(c) == string(entity.StatusUnknown)
}

func unconfirmedResponse(c *fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, "5")
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Code:    string(auth.KindProfileResolutionFailed),
		Message: "no se pudo confirmar el estado de la cuenta, intente más tarde",
	})
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetToken devuelve el token de la sesión (después de AuthMiddleware).
func GetToken(c *fiber.Ctx) string { return localString(c, LocalToken) }

// GetIdentityID devuelve el ID de la identidad autenticada.
func GetIdentityID(c *fiber.Ctx) string { return localString(c, LocalIdentityID) }

// GetRole devuelve el rol resuelto del usuario.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetStatus devuelve el estado de la cuenta.
func GetStatus(c *fiber.Ctx) string { return localString(c, LocalStatus) }

// GetSession devuelve la sesión resuelta por AuthMiddleware, nil si no pasó por él.
func GetSession(c *fiber.Ctx) *auth.SessionView {
	v, _ := c.Locals(LocalSession).(*auth.SessionView)
	return v
}

// GetActor arma el actor de las operaciones administrativas.
func GetActor(c *fiber.Ctx) auth.Actor {
	role, _ := entity.ParseRole(GetRole(c))
	return auth.Actor{IdentityID: GetIdentityID(c), Role: role}
}
