package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de los servicios de aplicación
// ──────────────────────────────────────────────────────────────────────────────

type fakeAuth struct {
	sessions   map[string]*auth.SessionView // token → sesión
	currentErr error                        // si no es nil, Current falla con este error

	signIn       auth.SignInResult
	lastExpected *entity.Role
	signUpErr    error
	lastSignUp   auth.SignUpInput
	signedOut    []string
	guard        auth.GuardResult
	lastGuard    auth.GuardOptions
	lastToken    string
	resendErr    error
	verified     *entity.Identity
	verifyErr    error
	currentCalls int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: map[string]*auth.SessionView{}}
}

// addSession registra un token válido para un perfil de rol y estado dados.
func (f *fakeAuth) addSession(token, id string, role entity.Role, status entity.AccountStatus) {
	now := time.Now()
	f.sessions[token] = &auth.SessionView{
		Identity: &entity.Identity{ID: id, Email: id + "@tienda.test", DisplayName: "Ana Pérez", EmailVerified: true, CreatedAt: now},
		Profile: &auth.ResolvedProfile{
			Profile: &entity.Profile{
				ID: id, IdentityID: id, Role: role, FirstName: "Ana", LastName: "Pérez",
				Email: id + "@tienda.test", Status: status, TotalSpent: decimal.Zero, CreatedAt: now, UpdatedAt: now,
			},
			Source: auth.SourceLive,
		},
	}
}

func (f *fakeAuth) Current(_ context.Context, token string) (*auth.SessionView, error) {
	f.currentCalls++
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	v, ok := f.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return v, nil
}

func (f *fakeAuth) SignIn(_ context.Context, _, _ string, expected *entity.Role) auth.SignInResult {
	f.lastExpected = expected
	return f.signIn
}

func (f *fakeAuth) SignUp(_ context.Context, in auth.SignUpInput) error {
	f.lastSignUp = in
	return f.signUpErr
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func (f *fakeAuth) Guard(_ context.Context, token string, opts auth.GuardOptions) auth.GuardResult {
	f.lastToken = token
	f.lastGuard = opts
	return f.guard
}

func (f *fakeAuth) ResendVerification(_ context.Context, _ string) error {
	return f.resendErr
}

func (f *fakeAuth) ConfirmVerification(_ context.Context, _ string) (*entity.Identity, error) {
	return f.verified, f.verifyErr
}

func (f *fakeAuth) Permissions(role entity.Role) auth.PermissionSet {
	return auth.NewPermissionSet(role)
}

type fakeAccounts struct {
	lastActor auth.Actor
	lastID    string
	lastPatch entity.ProfilePatch
	profile   *entity.Profile
	err       error
}

func (f *fakeAccounts) Approve(_ context.Context, actor auth.Actor, id string) (*entity.Profile, error) {
	f.lastActor, f.lastID = actor, id
	return f.profile, f.err
}

func (f *fakeAccounts) Deactivate(_ context.Context, actor auth.Actor, id string) (*entity.Profile, error) {
	f.lastActor, f.lastID = actor, id
	return f.profile, f.err
}

func (f *fakeAccounts) UpdateOwnProfile(_ context.Context, actor auth.Actor, patch entity.ProfilePatch) (*entity.Profile, error) {
	f.lastActor, f.lastPatch = actor, patch
	return f.profile, f.err
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de request
// ──────────────────────────────────────────────────────────────────────────────

func send(t *testing.T, app *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
