package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/authz"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Storefront-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para validar la sesión y cargar locals
//   - RequireRole para autorizar el acceso
//   - Un handler dummy que devuelve 200 si pasa los middlewares
func buildTestApp(reader *fakeAuth, allowed ...entity.Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/protected",
		apphttp.AuthMiddleware(reader),
		apphttp.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":   true,
				"role": apphttp.GetRole(c),
			})
		},
	)
	return app
}

func readerWithRoles() *fakeAuth {
	f := newFakeAuth()
	f.addSession("tok-customer", "u-customer", entity.RoleCustomer, entity.StatusVerified)
	f.addSession("tok-manager", "u-manager", entity.RoleShopManager, entity.StatusVerified)
	f.addSession("tok-admin", "u-admin", entity.RoleSuperAdmin, entity.StatusVerified)
	f.addSession("tok-off", "u-off", entity.RoleSuperAdmin, entity.StatusDeactivated)
	return f
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_AdminAccedeRutaAdmin(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleSuperAdmin)
	resp := doRequest(t, app, "Bearer tok-admin")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "super_admin", body["role"])
}

// La jerarquía es acumulativa: super_admin entra a rutas de shop_manager.
func TestRequireRole_AdminAccedeRutaManager(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleShopManager)
	resp := doRequest(t, app, "Bearer tok-admin")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Con varios roles permitidos decide el de menor rango.
func TestRequireRole_MultiRolUsaElMinimo(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleSuperAdmin, entity.RoleShopManager)

	resp := doRequest(t, app, "Bearer tok-manager")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "Bearer tok-customer")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireRole_CustomerBloqueadoEnRutaAdmin(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleSuperAdmin)
	resp := doRequest(t, app, "Bearer tok-customer")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
	assert.Contains(t, string(body), "Super Admin")
}

// Desactivada pierde el acceso aunque el rol alcance.
func TestRequireRole_CuentaDesactivadaBloqueada(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleCustomer)
	resp := doRequest(t, app, "Bearer tok-off")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ACCOUNT_DEACTIVATED")
}

func TestRequireRole_SinRolesSoloExigeSesion(t *testing.T) {
	app := buildTestApp(readerWithRoles())
	resp := doRequest(t, app, "Bearer tok-customer")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinAuthHeader_Retorna401(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleCustomer)
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestAuthMiddleware_FormatoInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleCustomer)
	resp := doRequest(t, app, "Token tok-admin")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_TOKEN")
}

func TestAuthMiddleware_SesionInexistente_Retorna401(t *testing.T) {
	app := buildTestApp(readerWithRoles(), entity.RoleCustomer)
	resp := doRequest(t, app, "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Proveedor caído: no es "sin sesión", es "no se sabe" → 503 con Retry-After.
func TestAuthMiddleware_ProveedorCaido_Retorna503(t *testing.T) {
	reader := readerWithRoles()
	reader.currentErr = errors.Join(domain.ErrProviderUnavailable, errors.New("timeout"))
	app := buildTestApp(reader, entity.RoleCustomer)
	resp := doRequest(t, app, "Bearer tok-admin")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "PROVIDER_UNAVAILABLE")
}

func TestAuthMiddleware_CargaLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/whoami", apphttp.AuthMiddleware(readerWithRoles()), func(c *fiber.Ctx) error {
		actor := apphttp.GetActor(c)
		return c.JSON(fiber.Map{
			"identity_id": apphttp.GetIdentityID(c),
			"role":        apphttp.GetRole(c),
			"status":      apphttp.GetStatus(c),
			"token":       apphttp.GetToken(c),
			"actor_role":  string(actor.Role),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer tok-manager")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "u-manager", body["identity_id"])
	assert.Equal(t, "shop_manager", body["role"])
	assert.Equal(t, "Verified", body["status"])
	assert.Equal(t, "tok-manager", body["token"])
	assert.Equal(t, "shop_manager", body["actor_role"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequirePermission
// ──────────────────────────────────────────────────────────────────────────────

func TestRequirePermission(t *testing.T) {
	app := fiber.New()
	app.Delete("/products/:id",
		apphttp.AuthMiddleware(readerWithRoles()),
		apphttp.RequirePermission(authz.ResourceProducts, authz.ActionDelete),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)

	cases := []struct {
		token string
		want  int
	}{
		{"tok-customer", http.StatusForbidden},
		{"tok-manager", http.StatusNoContent},
		{"tok-admin", http.StatusNoContent},
	}
	for _, tc := range cases {
		resp := send(t, app, http.MethodDelete, "/products/p1", tc.token, "")
		resp.Body.Close()
		assert.Equal(t, tc.want, resp.StatusCode, tc.token)
	}
}

// Perfil de respaldo (rol cacheado, estado desconocido): ni el rol ni el permiso alcanzan.
func TestRequireRole_EstadoDesconocidoRetorna503(t *testing.T) {
	reader := readerWithRoles()
	reader.addSession("tok-cached", "u-cached", entity.RoleSuperAdmin, entity.StatusUnknown)
	reader.sessions["tok-cached"].Profile.Source = auth.SourceCached

	app := buildTestApp(reader, entity.RoleShopManager)
	resp := doRequest(t, app, "Bearer tok-cached")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "PROFILE_RESOLUTION_FAILED")

	perm := fiber.New()
	perm.Delete("/products/:id",
		apphttp.AuthMiddleware(reader),
		apphttp.RequirePermission(authz.ResourceProducts, authz.ActionDelete),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)
	presp := send(t, perm, http.MethodDelete, "/products/p1", "tok-cached", "")
	presp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, presp.StatusCode)
}
