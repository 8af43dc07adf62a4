package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

func guardInput(role entity.Role, status entity.AccountStatus, verified bool, route RouteRequirement) GuardInput {
	return GuardInput{
		Session:  SessionPresent,
		Identity: &entity.Identity{ID: "u1", EmailVerified: verified},
		Profile:  &entity.Profile{ID: "u1", IdentityID: "u1", Role: role, Status: status},
		Route:    route,
	}
}

func managerRoute() RouteRequirement {
	return RouteRequirement{AllowedRoles: []entity.Role{entity.RoleShopManager}, Path: "/manager"}
}

// ──────────────────────────────────────────────────────────────────────────────
// Decide
// ──────────────────────────────────────────────────────────────────────────────

func TestDecide_Estados(t *testing.T) {
	tests := []struct {
		name     string
		in       GuardInput
		state    GuardState
		redirect string
	}{
		{"consulta en vuelo", GuardInput{Session: SessionChecking}, StateAuthenticating, ""},
		{"sesión presente sin perfil aún", GuardInput{Session: SessionPresent}, StateAuthenticating, ""},
		{"sin sesión", GuardInput{Session: SessionNone, Route: managerRoute()}, StateUnauthenticated, "/login?redirect=%2Fmanager"},
		{"sin sesión con login alternativo", GuardInput{Session: SessionNone, Route: RouteRequirement{RedirectTo: "/manager/login"}}, StateUnauthenticated, "/manager/login"},
		{"email sin verificar", guardInput(entity.RoleCustomer, entity.StatusVerified, false, RouteRequirement{RequireEmailVerification: true}), StateNeedsVerification, VerifyEmailPath},
		{"verificación no requerida", guardInput(entity.RoleCustomer, entity.StatusVerified, false, RouteRequirement{}), StateAuthorized, ""},
		{"shop manager pendiente", guardInput(entity.RoleShopManager, entity.StatusPending, true, managerRoute()), StatePendingApproval, PendingApprovalPath},
		{"customer en ruta de manager", guardInput(entity.RoleCustomer, entity.StatusVerified, true, managerRoute()), StateDenied, "/account"},
		{"manager en ruta de admin", guardInput(entity.RoleShopManager, entity.StatusVerified, true, RouteRequirement{AllowedRoles: []entity.Role{entity.RoleSuperAdmin}}), StateDenied, "/manager"},
		{"admin en ruta de manager", guardInput(entity.RoleSuperAdmin, entity.StatusVerified, true, managerRoute()), StateAuthorized, ""},
		{"desactivado", guardInput(entity.RoleSuperAdmin, entity.StatusDeactivated, true, RouteRequirement{}), StateDenied, SignInPath},
		{"rol desconocido", guardInput(entity.Role("root"), entity.StatusVerified, true, managerRoute()), StateDenied, "/account"},
		{"estado desconocido en ruta de manager", guardInput(entity.RoleShopManager, entity.StatusUnknown, true, managerRoute()), StateAuthenticating, ""},
		{"estado desconocido sin requisito de rol", guardInput(entity.RoleCustomer, entity.StatusUnknown, true, RouteRequirement{}), StateAuthenticating, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.in)
			assert.Equal(t, tt.state, d.State)
			assert.Equal(t, tt.redirect, d.Redirect)
		})
	}
}

// Varios roles permitidos: decide el de menor rango.
func TestDecide_VariosRolesPermitidos(t *testing.T) {
	route := RouteRequirement{AllowedRoles: []entity.Role{entity.RoleSuperAdmin, entity.RoleCustomer}}
	d := Decide(guardInput(entity.RoleCustomer, entity.StatusVerified, true, route))
	assert.Equal(t, StateAuthorized, d.State)
}

// Desactivado gana sobre cualquier otra condición.
func TestDecide_DesactivadoPrevaleceSobreVerificacion(t *testing.T) {
	in := guardInput(entity.RoleShopManager, entity.StatusDeactivated, false, RouteRequirement{RequireEmailVerification: true})
	d := Decide(in)
	assert.Equal(t, StateDenied, d.State)
	require.NotNil(t, d.Reason)
	assert.Equal(t, KindAccountDeactivated, d.Reason.Kind)
}

func TestDecide_FalloTransitorio(t *testing.T) {
	d := Decide(GuardInput{Session: SessionUnknown})
	assert.Equal(t, StateAuthenticating, d.State)
	assert.True(t, d.Transient)
	assert.Empty(t, d.Redirect)
}

func TestDecide_MensajesExplicanLaCausa(t *testing.T) {
	d := Decide(guardInput(entity.RoleCustomer, entity.StatusVerified, true, managerRoute()))
	require.NotNil(t, d.Reason)
	assert.Contains(t, d.Reason.Message, "Shop Manager")
	assert.Contains(t, d.Reason.Message, "Customer")
	assert.NotEmpty(t, d.Reason.Remedy)
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthGuard
// ──────────────────────────────────────────────────────────────────────────────

// slowEvaluator bloquea las evaluaciones del token "lento" hasta que se libera release.
type slowEvaluator struct {
	release chan struct{}
	started chan string
}

func (e *slowEvaluator) Guard(ctx context.Context, token string, _ GuardOptions) GuardResult {
	e.started <- token
	if token == "lento" {
		<-e.release
		return GuardResult{State: StateAuthorized, UserRole: entity.RoleSuperAdmin}
	}
	return GuardResult{State: StateDenied, UserRole: entity.RoleCustomer}
}

// Una respuesta que llega después de un cambio de sesión se descarta.
func TestAuthGuard_DescartaRespuestaObsoleta(t *testing.T) {
	eval := &slowEvaluator{release: make(chan struct{}), started: make(chan string, 2)}
	var (
		mu      sync.Mutex
		changes []GuardResult
	)
	g := NewAuthGuard(eval, func(r GuardResult) {
		mu.Lock()
		changes = append(changes, r)
		mu.Unlock()
	})
	assert.Equal(t, StateAuthenticating, g.State().State)

	ctx := context.Background()
	g.Update(ctx, "lento", GuardOptions{})
	require.Equal(t, "lento", <-eval.started)

	g.Update(ctx, "rapido", GuardOptions{})
	require.Equal(t, "rapido", <-eval.started)

	require.Eventually(t, func() bool { return g.State().State == StateDenied }, time.Second, 5*time.Millisecond)

	close(eval.release)
	g.Wait()

	assert.Equal(t, StateDenied, g.State().State, "la respuesta vieja no pisa la nueva")
	assert.Equal(t, entity.RoleCustomer, g.State().UserRole)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 1)
	assert.Equal(t, StateDenied, changes[0].State)
}

// El contexto de la evaluación anterior se cancela al lanzar una nueva.
func TestAuthGuard_CancelaEvaluacionAnterior(t *testing.T) {
	done := make(chan error, 1)
	eval := evaluatorFunc(func(ctx context.Context, token string, _ GuardOptions) GuardResult {
		if token == "primero" {
			<-ctx.Done()
			done <- ctx.Err()
			return GuardResult{State: StateAuthorized}
		}
		return GuardResult{State: StateUnauthenticated}
	})
	g := NewAuthGuard(eval, nil)

	g.Update(context.Background(), "primero", GuardOptions{})
	g.Update(context.Background(), "segundo", GuardOptions{})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("la evaluación anterior no se canceló")
	}
	g.Wait()
	assert.Equal(t, StateUnauthenticated, g.State().State)
}

func TestAuthGuard_CloseDescartaTodo(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context, _ string, _ GuardOptions) GuardResult {
		<-ctx.Done()
		return GuardResult{State: StateAuthorized}
	})
	g := NewAuthGuard(eval, nil)
	g.Update(context.Background(), "tok", GuardOptions{})
	g.Close()
	assert.Equal(t, StateAuthenticating, g.State().State)
}

type evaluatorFunc func(ctx context.Context, token string, opts GuardOptions) GuardResult

func (f evaluatorFunc) Guard(ctx context.Context, token string, opts GuardOptions) GuardResult {
	return f(ctx, token, opts)
}
