package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/application/dto"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// accountService contrato del handler; lo implementa *auth.AccountService.
type accountService interface {
	Approve(ctx context.Context, actor auth.Actor, identityID string) (*entity.Profile, error)
	Deactivate(ctx context.Context, actor auth.Actor, identityID string) (*entity.Profile, error)
	UpdateOwnProfile(ctx context.Context, actor auth.Actor, patch entity.ProfilePatch) (*entity.Profile, error)
}

// AccountHandler administración de cuentas y edición del perfil propio.
type AccountHandler struct {
	svc accountService
}

// NewAccountHandler construye el handler.
func NewAccountHandler(svc accountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// Approve godoc
// @Summary      Aprobar shop manager
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "identity_id"
// @Success      200  {object}  dto.ProfileResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/admin/accounts/{id}/approve [post]
func (h *AccountHandler) Approve(c *fiber.Ctx) error {
	p, err := h.svc.Approve(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toProfileResponse(p))
}

// Deactivate godoc
// @Summary      Desactivar cuenta
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "identity_id"
// @Success      200  {object}  dto.ProfileResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/admin/accounts/{id}/deactivate [post]
func (h *AccountHandler) Deactivate(c *fiber.Ctx) error {
	p, err := h.svc.Deactivate(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toProfileResponse(p))
}

// UpdateProfile godoc
// @Summary      Editar perfil propio
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UpdateProfileRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.ProfileResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/me/profile [patch]
func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	var in dto.UpdateProfileRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	patch := entity.ProfilePatch{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		AvatarURL: in.AvatarURL,
	}
	if in.Status != nil {
		status := entity.AccountStatus(*in.Status)
		patch.Status = &status
	}
	p, err := h.svc.UpdateOwnProfile(c.UserContext(), GetActor(c), patch)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toProfileResponse(p))
}
