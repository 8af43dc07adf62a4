package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/Storefront-api/internal/domain"
	"github.com/jhoicas/Storefront-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria
// ──────────────────────────────────────────────────────────────────────────────

var errStoreDown = errors.New("store: connection refused")

// fakeStore almacén particionado en memoria. failFind hace fallar FindOne en esa partición.
type fakeStore struct {
	mu         sync.Mutex
	docs       map[entity.Partition]map[string]*entity.Profile
	failFind   map[entity.Partition]error
	failInsert error
	finds      []entity.Partition
	inserts    int

	// si block no es nil, FindOne avisa en entered y espera a que se cierre block
	block   chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     map[entity.Partition]map[string]*entity.Profile{},
		failFind: map[entity.Partition]error{},
	}
}

func (s *fakeStore) put(p entity.Partition, profile *entity.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[p] == nil {
		s.docs[p] = map[string]*entity.Profile{}
	}
	cp := *profile
	s.docs[p][profile.ID] = &cp
}

// failAll hace fallar las lecturas de las tres particiones.
func (s *fakeStore) failAll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range []entity.Partition{entity.PartitionSuperAdmins, entity.PartitionShopManagers, entity.PartitionCustomers} {
		s.failFind[p] = err
	}
}

func (s *fakeStore) get(p entity.Partition, id string) *entity.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[p][id]
}

func (s *fakeStore) count(p entity.Partition) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[p])
}

func (s *fakeStore) FindOne(ctx context.Context, p entity.Partition, identityID string) (*entity.Profile, error) {
	if s.block != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds = append(s.finds, p)
	if err := s.failFind[p]; err != nil {
		return nil, err
	}
	for _, doc := range s.docs[p] {
		if doc.IdentityID == identityID {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Insert(_ context.Context, p entity.Partition, key string, profile *entity.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	if s.docs[p] == nil {
		s.docs[p] = map[string]*entity.Profile{}
	}
	if _, ok := s.docs[p][key]; ok {
		return domain.ErrDuplicate
	}
	cp := *profile
	cp.ID = key
	s.docs[p][key] = &cp
	s.inserts++
	return nil
}

func (s *fakeStore) Update(_ context.Context, p entity.Partition, key string, patch entity.ProfilePatch) (*entity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[p][key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.FirstName != nil {
		doc.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		doc.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		doc.Phone = *patch.Phone
	}
	if patch.AvatarURL != nil {
		doc.AvatarURL = *patch.AvatarURL
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
	}
	cp := *doc
	return &cp, nil
}

// fakeCache caché de roles en memoria.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// fakeProvider proveedor de identidad programable.
type fakeProvider struct {
	mu             sync.Mutex
	identities     map[string]*entity.Identity // por email
	passwords      map[string]string
	sessions       map[string]string // token -> identityID
	signInErrs     []error           // se consumen en orden en CreateSession
	currentUserErr error
	createCalls    int
	destroyed      []string
	verifications  []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		identities: map[string]*entity.Identity{},
		passwords:  map[string]string{},
		sessions:   map[string]string{},
	}
}

func (p *fakeProvider) addIdentity(id, email, password string, verified bool) *entity.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident := &entity.Identity{ID: id, Email: email, DisplayName: "Ana María Pérez", EmailVerified: verified, CreatedAt: time.Now()}
	p.identities[email] = ident
	p.passwords[email] = password
	return ident
}

func (p *fakeProvider) byID(id string) *entity.Identity {
	for _, ident := range p.identities {
		if ident.ID == id {
			return ident
		}
	}
	return nil
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, password, displayName string) (*entity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.identities[email]; ok {
		return nil, domain.ErrEmailAlreadyExists
	}
	ident := &entity.Identity{ID: "id-" + email, Email: email, DisplayName: displayName, CreatedAt: time.Now()}
	p.identities[email] = ident
	p.passwords[email] = password
	return ident, nil
}

func (p *fakeProvider) CreateSession(_ context.Context, email, password string) (*entity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	if len(p.signInErrs) > 0 {
		err := p.signInErrs[0]
		p.signInErrs = p.signInErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	ident, ok := p.identities[email]
	if !ok || p.passwords[email] != password {
		return nil, domain.ErrInvalidCredentials
	}
	token := "tok-" + ident.ID
	p.sessions[token] = ident.ID
	return &entity.Session{ID: "sess-" + ident.ID, IdentityID: ident.ID, Token: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) CurrentUser(_ context.Context, token string) (*entity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentUserErr != nil {
		return nil, p.currentUserErr
	}
	id, ok := p.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	cp := *p.byID(id)
	return &cp, nil
}

func (p *fakeProvider) DestroySession(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = append(p.destroyed, token)
	if _, ok := p.sessions[token]; !ok {
		return domain.ErrUnauthorized
	}
	delete(p.sessions, token)
	return nil
}

func (p *fakeProvider) SendVerificationEmail(_ context.Context, identityID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifications = append(p.verifications, identityID)
	return nil
}

func (p *fakeProvider) ConfirmVerification(_ context.Context, code string) (*entity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident := p.byID(code)
	if ident == nil {
		return nil, domain.ErrInvalidVerification
	}
	ident.EmailVerified = true
	cp := *ident
	return &cp, nil
}

func (p *fakeProvider) hasSession(token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sessions[token]
	return ok
}

// fakeClock reloj controlable para el rate limiter.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeRecorder guarda los eventos de métricas como "op/outcome".
type fakeRecorder struct {
	mu       sync.Mutex
	attempts []string
}

func (r *fakeRecorder) Attempt(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, op+"/"+outcome)
}

func (r *fakeRecorder) Throttled(time.Duration)  {}
func (r *fakeRecorder) Resolution(ProfileSource) {}
func (r *fakeRecorder) GuardDecision(GuardState) {}
