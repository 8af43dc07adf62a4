package http

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/application/dto"
	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/authz"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// authService contrato que consume el handler; lo implementa *auth.Service.
type authService interface {
	sessionReader
	SignIn(ctx context.Context, email, password string, expectedRole *entity.Role) auth.SignInResult
	SignUp(ctx context.Context, in auth.SignUpInput) error
	SignOut(ctx context.Context, token string) error
	Guard(ctx context.Context, token string, opts auth.GuardOptions) auth.GuardResult
	ResendVerification(ctx context.Context, token string) error
	ConfirmVerification(ctx context.Context, code string) (*entity.Identity, error)
	Permissions(role entity.Role) auth.PermissionSet
}

// AuthHandler maneja sesión, registro, verificación y el guard de rutas.
type AuthHandler struct {
	svc authService
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// SignIn godoc
// @Summary      Iniciar sesión
// @Description  Si se envía expected_role y la cuenta tiene otro rol, el login falla con ROLE_MISMATCH.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignInRequest  true  "email, password, expected_role"
// @Success      200   {object}  dto.SignInResponse
// @Failure      400   {object}  dto.AuthErrorResponse
// @Failure      401   {object}  dto.AuthErrorResponse
// @Failure      403   {object}  dto.AuthErrorResponse
// @Failure      429   {object}  dto.AuthErrorResponse
// @Failure      503   {object}  dto.AuthErrorResponse
// @Router       /api/auth/signin [post]
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var in dto.SignInRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	var expected *entity.Role
	if in.ExpectedRole != "" {
		role, ok := entity.ParseRole(in.ExpectedRole)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expected_role inválido"})
		}
		expected = &role
	}

	res := h.svc.SignIn(c.UserContext(), in.Email, in.Password, expected)
	if !res.Success {
		return writeAuthError(c, res.Err)
	}
	out := dto.SignInResponse{
		Token:     res.Session.Token,
		ExpiresAt: &res.Session.ExpiresAt,
	}
	if res.Profile != nil {
		p := toProfileResponse(res.Profile.Profile)
		out.Profile = &p
		out.Source = string(res.Profile.Source)
		out.LowConfidence = res.Profile.LowConfidence()
	}
	return c.JSON(out)
}

// SignUp godoc
// @Summary      Registrar cuenta
// @Description  customer queda activo; shop_manager queda pendiente de aprobación.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignUpRequest  true  "email, password, nombre, rol"
// @Success      201   {object}  dto.SignUpResponse
// @Failure      400   {object}  dto.AuthErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var in dto.SignUpRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	role := entity.RoleCustomer
	if in.Role != "" {
		r, ok := entity.ParseRole(in.Role)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rol inválido"})
		}
		role = r
	}
	err := h.svc.SignUp(c.UserContext(), auth.SignUpInput{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado"})
		}
		return writeDomainError(c, err)
	}
	status := entity.StatusVerified
	if role == entity.RoleShopManager {
		status = entity.StatusPending
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SignUpResponse{
		Email:  strings.TrimSpace(in.Email),
		Role:   string(role),
		Status: string(status),
	})
}

// SignOut godoc
// @Summary      Cerrar sesión
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/signout [post]
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	token, code, msg := bearerToken(c)
	if code != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
	}
	if err := h.svc.SignOut(c.UserContext(), token); err != nil {
		return writeDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me godoc
// @Summary      Sesión actual
// @Description  Identidad y perfil resuelto. low_confidence indica que el rol salió de la caché o de un perfil provisional.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	view := GetSession(c)
	if view == nil {
		v, err := h.svc.Current(c.UserContext(), GetToken(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		view = v
	}
	return c.JSON(dto.MeResponse{
		Identity:      toIdentityResponse(view.Identity),
		Profile:       toProfileResponse(view.Profile.Profile),
		Source:        string(view.Profile.Source),
		LowConfidence: view.Profile.LowConfidence(),
		Warning:       toAuthErrorResponse(view.Profile.Warning),
	})
}

// ResendVerification godoc
// @Summary      Reenviar email de verificación
// @Tags         auth
// @Security     BearerAuth
// @Success      202
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/auth/verification [post]
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	if err := h.svc.ResendVerification(c.UserContext(), GetToken(c)); err != nil {
		return writeDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Verify godoc
// @Summary      Confirmar email
// @Tags         auth
// @Produce      json
// @Param        code  query  string  true  "código recibido por email"
// @Success      200   {object}  dto.IdentityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/verify [get]
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	ident, err := h.svc.ConfirmVerification(c.UserContext(), c.Query("code"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toIdentityResponse(ident))
}

// Guard godoc
// @Summary      Evaluar acceso a una ruta
// @Description  Devuelve el estado del guard (Authorized, Denied, NeedsVerification, ...) y a dónde redirigir.
// @Tags         auth
// @Produce      json
// @Param        allowed_roles         query  string  false  "roles separados por coma"
// @Param        require_verification  query  bool    false  "exigir email verificado"
// @Param        path                  query  string  false  "ruta pedida"
// @Param        redirect_to           query  string  false  "login alternativo"
// @Success      200  {object}  dto.GuardResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/auth/guard [get]
func (h *AuthHandler) Guard(c *fiber.Ctx) error {
	opts := auth.GuardOptions{
		RequireEmailVerification: c.QueryBool("require_verification", false),
		Path:                     c.Query("path"),
		RedirectTo:               c.Query("redirect_to"),
	}
	if raw := c.Query("allowed_roles"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			role, ok := entity.ParseRole(part)
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rol inválido: " + strings.TrimSpace(part)})
			}
			opts.AllowedRoles = append(opts.AllowedRoles, role)
		}
	}
	// sin token se evalúa igual: el resultado es Unauthenticated con redirect al login
	token, _, _ := bearerToken(c)

	res := h.svc.Guard(c.UserContext(), token, opts)
	return c.JSON(dto.GuardResponse{
		IsAuthenticated: res.IsAuthenticated,
		HasPermission:   res.HasPermission,
		UserRole:        string(res.UserRole),
		UserStatus:      string(res.UserStatus),
		IsLoading:       res.IsLoading,
		State:           string(res.State),
		Redirect:        res.Redirect,
		Transient:       res.Transient,
		LowConfidence:   res.LowConfidence,
		Error:           toAuthErrorResponse(res.Err),
	})
}

// Permissions godoc
// @Summary      Permisos del usuario actual
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.PermissionsResponse
// @Router       /api/auth/permissions [get]
func (h *AuthHandler) Permissions(c *fiber.Ctx) error {
	role, _ := entity.ParseRole(GetRole(c))
	set := h.svc.Permissions(role)

	levels := make(map[string]string, len(set.Levels))
	for res, lvl := range set.Levels {
		levels[string(res)] = lvl.String()
	}
	perms := []string{}
	for _, res := range authz.Resources {
		for _, act := range []authz.Action{authz.ActionRead, authz.ActionWrite, authz.ActionDelete} {
			if set.Can(res, act) {
				perms = append(perms, authz.Permission{Resource: res, Action: act}.String())
			}
		}
	}
	sort.Strings(perms)
	return c.JSON(dto.PermissionsResponse{
		Role:             string(set.Role),
		IsAdmin:          set.IsAdmin,
		IsManagerOrAbove: set.IsManagerOrAbove,
		Levels:           levels,
		Permissions:      perms,
	})
}
