package auth

import (
	"sync"
	"time"
)

// RateLimitConfig parámetros del backoff exponencial del gateway.
type RateLimitConfig struct {
	Base      time.Duration // 2^intentos * Base
	Max       time.Duration
	IdleReset time.Duration
}

// DefaultRateLimitConfig backoff de 1s base, tope de 5 minutos y reinicio tras 60s de inactividad.
var DefaultRateLimitConfig = RateLimitConfig{
	Base:      time.Second,
	Max:       300 * time.Second,
	IdleReset: 60 * time.Second,
}

// RateLimitState estado de throttling de un Gateway. Cada gateway tiene el suyo;
// no hay estado global, así los tests pueden crear gateways independientes.
//
// Solo las respuestas "demasiados intentos" del proveedor lo modifican.
type RateLimitState struct {
	mu  sync.Mutex
	cfg RateLimitConfig
	now func() time.Time

	attempts    int
	lastAttempt time.Time
	backoff     time.Duration
	locked      bool
}

// NewRateLimitState construye el estado vacío. now puede ser nil (usa time.Now).
func NewRateLimitState(cfg RateLimitConfig, now func() time.Time) *RateLimitState {
	if cfg.Base <= 0 {
		cfg.Base = DefaultRateLimitConfig.Base
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultRateLimitConfig.Max
	}
	if cfg.IdleReset <= 0 {
		cfg.IdleReset = DefaultRateLimitConfig.IdleReset
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimitState{cfg: cfg, now: now}
}

// Check informa si hay un bloqueo vigente y cuánto falta para que termine.
func (s *RateLimitState) Check() (remaining time.Duration, limited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	s.expireIdleLocked(t)
	if !s.locked {
		return 0, false
	}
	elapsed := t.Sub(s.lastAttempt)
	if elapsed < s.backoff {
		return s.backoff - elapsed, true
	}
	return 0, false
}

// RecordThrottled registra una respuesta "demasiados intentos" y devuelve el nuevo backoff:
// min(2^intentos * Base, Max).
func (s *RateLimitState) RecordThrottled() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	s.expireIdleLocked(t)
	s.attempts++
	s.backoff = backoffFor(s.attempts, s.cfg)
	s.locked = true
	s.lastAttempt = t
	return s.backoff
}

// Reset vuelve al estado inicial (tras un inicio de sesión exitoso).
func (s *RateLimitState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Attempts número de respuestas de throttling consecutivas registradas.
func (s *RateLimitState) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIdleLocked(s.now())
	return s.attempts
}

// expireIdleLocked reinicia el estado si pasó IdleReset desde que terminó el último bloqueo.
func (s *RateLimitState) expireIdleLocked(t time.Time) {
	if s.attempts == 0 && !s.locked {
		return
	}
	if t.Sub(s.lastAttempt.Add(s.backoff)) >= s.cfg.IdleReset {
		s.resetLocked()
	}
}

func (s *RateLimitState) resetLocked() {
	s.attempts = 0
	s.lastAttempt = time.Time{}
	s.backoff = 0
	s.locked = false
}

func backoffFor(attempts int, cfg RateLimitConfig) time.Duration {
	if attempts > 30 {
		return cfg.Max
	}
	d := cfg.Base * time.Duration(1<<uint(attempts))
	if d > cfg.Max || d <= 0 {
		return cfg.Max
	}
	return d
}

// waitSeconds redondea hacia arriba a segundos enteros.
func waitSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// idle reinicia si corresponde e informa si el estado quedó vacío.
func (s *RateLimitState) idle(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIdleLocked(t)
	return s.attempts == 0 && !s.locked
}

// RateLimits un RateLimitState por cliente (email normalizado). Un email limitado por el
// proveedor no bloquea a los demás. Solo existen estados para claves que recibieron
// throttling; los que vuelven al estado inicial se barren cada IdleReset.
type RateLimits struct {
	mu        sync.Mutex
	cfg       RateLimitConfig
	now       func() time.Time
	states    map[string]*RateLimitState
	lastSweep time.Time
}

// NewRateLimits construye el registro vacío. now puede ser nil (usa time.Now).
func NewRateLimits(cfg RateLimitConfig, now func() time.Time) *RateLimits {
	if now == nil {
		now = time.Now
	}
	// normaliza la config con los mismos defaults que cada estado
	cfg = NewRateLimitState(cfg, now).cfg
	return &RateLimits{cfg: cfg, now: now, states: map[string]*RateLimitState{}, lastSweep: now()}
}

// Check equivale a RateLimitState.Check para la clave; sin estado no hay bloqueo.
func (r *RateLimits) Check(key string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[key]
	if !ok {
		return 0, false
	}
	return s.Check()
}

// RecordThrottled registra el throttling para la clave y devuelve su backoff.
func (r *RateLimits) RecordThrottled(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(key)
	s, ok := r.states[key]
	if !ok {
		s = NewRateLimitState(r.cfg, r.now)
		r.states[key] = s
	}
	return s.RecordThrottled()
}

// Reset olvida el estado de la clave.
func (r *RateLimits) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, key)
}

// Attempts intentos limitados consecutivos de la clave.
func (r *RateLimits) Attempts(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[key]
	if !ok {
		return 0
	}
	return s.Attempts()
}

// Len cantidad de claves con estado.
func (r *RateLimits) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *RateLimits) sweepLocked(keep string) {
	t := r.now()
	if t.Sub(r.lastSweep) < r.cfg.IdleReset {
		return
	}
	r.lastSweep = t
	for k, s := range r.states {
		if k != keep && s.idle(t) {
			delete(r.states, k)
		}
	}
}
