package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Storefront-api/internal/domain/authz"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Auth     authService
	Accounts accountService
	Metrics  nethttp.Handler // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")
	requireSession := AuthMiddleware(deps.Auth)

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.Auth)
	authGroup.Post("/signin", authHandler.SignIn)
	authGroup.Post("/signup", authHandler.SignUp)
	authGroup.Post("/signout", authHandler.SignOut)
	authGroup.Get("/verify", authHandler.Verify)
	authGroup.Get("/guard", authHandler.Guard)

	// Auth (requiere sesión)
	authGroup.Get("/me", requireSession, authHandler.Me)
	authGroup.Get("/permissions", requireSession, authHandler.Permissions)
	authGroup.Post("/verification", requireSession, authHandler.ResendVerification)

	accountHandler := NewAccountHandler(deps.Accounts)

	// Perfil propio
	me := api.Group("/me", requireSession, RequireRole())
	me.Patch("/profile", RequirePermission(authz.ResourceProfile, authz.ActionWrite), accountHandler.UpdateProfile)

	// Administración (solo super_admin)
	admin := api.Group("/admin", requireSession, RequireRole(entity.RoleSuperAdmin))
	admin.Post("/accounts/:id/approve", RequirePermission(authz.ResourceUsers, authz.ActionWrite), accountHandler.Approve)
	admin.Post("/accounts/:id/deactivate", RequirePermission(authz.ResourceUsers, authz.ActionDelete), accountHandler.Deactivate)
}
