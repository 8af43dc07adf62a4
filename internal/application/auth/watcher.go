package auth

import (
	"context"
	"sync"
)

// guardEvaluator lo implementa *Service; los tests lo sustituyen.
type guardEvaluator interface {
	Guard(ctx context.Context, token string, opts GuardOptions) GuardResult
}

// AuthGuard mantiene el estado del guard de una vista mientras cambian la sesión o la ruta.
// Cada Update invalida la evaluación anterior: una respuesta que llega tarde se descarta
// y nunca pisa el estado de una evaluación más reciente.
type AuthGuard struct {
	eval     guardEvaluator
	onChange func(GuardResult)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  GuardResult
	wg     sync.WaitGroup
}

// NewAuthGuard arranca en Authenticating. onChange puede ser nil.
func NewAuthGuard(eval guardEvaluator, onChange func(GuardResult)) *AuthGuard {
	return &AuthGuard{
		eval:     eval,
		onChange: onChange,
		state:    GuardResult{State: StateAuthenticating, IsLoading: true},
	}
}

// Update lanza una nueva evaluación y cancela la que estuviera en vuelo.
func (g *AuthGuard) Update(ctx context.Context, token string, opts GuardOptions) {
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	gen := g.gen
	cctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.state = GuardResult{State: StateAuthenticating, IsLoading: true}
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()
		res := g.eval.Guard(cctx, token, opts)
		g.apply(gen, res)
	}()
}

func (g *AuthGuard) apply(gen uint64, res GuardResult) {
	g.mu.Lock()
	if gen != g.gen {
		g.mu.Unlock()
		return
	}
	g.state = res
	cb := g.onChange
	g.mu.Unlock()

	if cb != nil {
		cb(res)
	}
}

// State último resultado vigente.
func (g *AuthGuard) State() GuardResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Close cancela la evaluación en vuelo y espera a que termine.
func (g *AuthGuard) Close() {
	g.mu.Lock()
	g.gen++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.mu.Unlock()
	g.wg.Wait()
}

// Wait espera a que terminen las evaluaciones lanzadas.
func (g *AuthGuard) Wait() {
	g.wg.Wait()
}
