package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/application/dto"
	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

func toProfileResponse(p *entity.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:          p.ID,
		IdentityID:  p.IdentityID,
		Role:        string(p.Role),
		RoleName:    p.Role.DisplayName(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Phone:       p.Phone,
		Status:      string(p.Status),
		AvatarURL:   p.AvatarURL,
		TotalOrders: p.TotalOrders,
		TotalSpent:  p.TotalSpent,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toIdentityResponse(i *entity.Identity) dto.IdentityResponse {
	return dto.IdentityResponse{
		ID:            i.ID,
		Email:         i.Email,
		DisplayName:   i.DisplayName,
		EmailVerified: i.EmailVerified,
		CreatedAt:     i.CreatedAt,
	}
}

func toAuthErrorResponse(e *auth.AuthError) *dto.AuthErrorResponse {
	if e == nil {
		return nil
	}
	return &dto.AuthErrorResponse{
		Code:         string(e.Kind),
		Message:      e.Message,
		Remedy:       e.Remedy,
		WaitSeconds:  e.WaitSeconds,
		ActualRole:   string(e.ActualRole),
		ExpectedRole: string(e.ExpectedRole),
	}
}

// authErrorStatus código HTTP de cada tipo de error de auth.
func authErrorStatus(kind auth.ErrorKind) int {
	switch kind {
	case auth.KindInvalidCredentials:
		return fiber.StatusUnauthorized
	case auth.KindRateLimited:
		return fiber.StatusTooManyRequests
	case auth.KindRoleMismatch, auth.KindAccountNotVerified, auth.KindAccountPendingApproval,
		auth.KindAccountDeactivated, auth.KindPermissionDenied:
		return fiber.StatusForbidden
	case auth.KindProviderUnavailable, auth.KindProfileResolutionFailed:
		return fiber.StatusServiceUnavailable
	case auth.KindInvalidInput:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// writeAuthError responde un AuthError con su código HTTP; RateLimited agrega Retry-After.
func writeAuthError(c *fiber.Ctx, e *auth.AuthError) error {
	if e.Kind == auth.KindRateLimited && e.WaitSeconds > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(e.WaitSeconds))
	}
	return c.Status(authErrorStatus(e.Kind)).JSON(toAuthErrorResponse(e))
}

// writeDomainError traduce los errores de dominio de las operaciones de cuenta.
func writeDomainError(c *fiber.Ctx, err error) error {
	var ae *auth.AuthError
	if errors.As(err, &ae) {
		return writeAuthError(c, ae)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión inválida o expirada"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidVerification):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_VERIFICATION", Message: err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: string(auth.KindProviderUnavailable), Message: "proveedor de identidad no disponible"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
