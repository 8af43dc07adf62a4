package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/time/rate"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
	"github.com/jhoicas/Storefront-api/internal/domain/repository"
	"github.com/jhoicas/Storefront-api/internal/infrastructure/mailer"
	"github.com/jhoicas/Storefront-api/pkg/jwt"
)

var _ repository.IdentityProvider = (*Provider)(nil)

// Config parámetros del proveedor local.
type Config struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	VerifyTTL  time.Duration
	VerifyURL  string
	RPS        float64 // intentos de login por segundo y email
	Burst      int
	BcryptCost int
}

// Provider proveedor de identidad local: credenciales con bcrypt, sesiones firmadas con JWT
// y throttling por email que responde domain.ErrTooManyRequests.
type Provider struct {
	store repository.CredentialStore
	mail  mailer.Sender
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterTTL tiempo sin intentos tras el cual se olvida el limiter de un email.
const limiterTTL = 10 * time.Minute

// dummyHash se compara cuando el email no existe para que la respuesta tarde lo mismo.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), bcrypt.MinCost)

// NewProvider construye el proveedor.
func NewProvider(store repository.CredentialStore, mail mailer.Sender, cfg Config, log zerolog.Logger) *Provider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.VerifyTTL <= 0 {
		cfg.VerifyTTL = 48 * time.Hour
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Provider{
		store:    store,
		mail:     mail,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

// NormalizeEmail recorta y pliega mayúsculas para comparar emails.
// Un Caser no se puede compartir entre goroutines: se crea uno por llamada.
func (p *Provider) NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// CreateAccount registra la identidad; el email queda sin verificar.
func (p *Provider) CreateAccount(ctx context.Context, email, password, displayName string) (*entity.Identity, error) {
	email = p.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email y password son requeridos", domain.ErrInvalidInput)
	}
	if !p.allow(email) {
		return nil, domain.ErrTooManyRequests
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}
	ident := entity.Identity{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   p.now(),
	}
	if err := p.store.CreateIdentity(ctx, &entity.Credential{Identity: ident, PasswordHash: string(hash)}); err != nil {
		return nil, err
	}
	p.log.Info().Str("identity_id", ident.ID).Msg("identidad creada")
	return &ident, nil
}

// CreateSession verifica credenciales y emite un token de sesión.
func (p *Provider) CreateSession(ctx context.Context, email, password string) (*entity.Session, error) {
	email = p.NormalizeEmail(email)
	if !p.allow(email) {
		return nil, domain.ErrTooManyRequests
	}
	cred, err := p.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := p.now()
	session := &entity.Session{
		ID:         uuid.New().String(),
		IdentityID: cred.Identity.ID,
		ExpiresAt:  now.Add(p.cfg.SessionTTL),
	}
	token, err := jwt.Generate(p.cfg.Secret, session.ID, session.IdentityID, cred.Identity.Email, p.cfg.Issuer, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("firmar sesión: %w", err)
	}
	if err := p.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	session.Token = token
	return session, nil
}

// CurrentUser valida el token contra la sesión guardada.
func (p *Provider) CurrentUser(ctx context.Context, token string) (*entity.Identity, error) {
	session, err := p.session(ctx, token)
	if err != nil {
		return nil, err
	}
	ident, err := p.store.FindIdentity(ctx, session.IdentityID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, domain.ErrUnauthorized
	}
	return ident, nil
}

// DestroySession revoca la sesión del token.
func (p *Provider) DestroySession(ctx context.Context, token string) error {
	session, err := p.session(ctx, token)
	if err != nil {
		return err
	}
	return p.store.RevokeSession(ctx, session.ID)
}

// SendVerificationEmail genera un código de un solo uso y lo envía.
func (p *Provider) SendVerificationEmail(ctx context.Context, identityID string) error {
	ident, err := p.store.FindIdentity(ctx, identityID)
	if err != nil {
		return err
	}
	if ident == nil {
		return domain.ErrUserNotFound
	}
	code := &entity.VerificationCode{
		Code:       uuid.New().String(),
		IdentityID: ident.ID,
		ExpiresAt:  p.now().Add(p.cfg.VerifyTTL),
	}
	if err := p.store.SaveVerificationCode(ctx, code); err != nil {
		return err
	}
	return p.mail.Send(ctx, mailer.Message{
		To:          ident.Email,
		DisplayName: ident.DisplayName,
		Link:        mailer.VerificationLink(p.cfg.VerifyURL, code.Code),
	})
}

// ConfirmVerification consume el código y marca el email como verificado.
func (p *Provider) ConfirmVerification(ctx context.Context, code string) (*entity.Identity, error) {
	identityID, err := p.store.ConsumeVerificationCode(ctx, code, p.now())
	if err != nil {
		return nil, err
	}
	if err := p.store.MarkEmailVerified(ctx, identityID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidVerification
		}
		return nil, err
	}
	ident, err := p.store.FindIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, domain.ErrInvalidVerification
	}
	return ident, nil
}

func (p *Provider) session(ctx context.Context, token string) (*entity.Session, error) {
	claims, err := jwt.Parse(p.cfg.Secret, token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	session, err := p.store.FindSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IdentityID != claims.IdentityID || !p.now().Before(session.ExpiresAt) {
		return nil, domain.ErrUnauthorized
	}
	session.Token = token
	return session, nil
}

// allow consume un token del limiter del email y olvida los limiters viejos.
func (p *Provider) allow(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for k, e := range p.limiters {
		if now.Sub(e.lastSeen) > limiterTTL {
			delete(p.limiters, k)
		}
	}
	e, ok := p.limiters[email]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)}
		p.limiters[email] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}
