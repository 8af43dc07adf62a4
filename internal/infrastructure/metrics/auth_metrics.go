package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Storefront-api/internal/application/auth"
)

var _ auth.Recorder = (*AuthRecorder)(nil)

// AuthRecorder métricas del subsistema de auth.
type AuthRecorder struct {
	attempts    *prometheus.CounterVec
	backoff     prometheus.Histogram
	resolutions *prometheus.CounterVec
	guard       *prometheus.CounterVec
}

// NewAuthRecorder crea las métricas y las registra en reg.
func NewAuthRecorder(reg prometheus.Registerer) *AuthRecorder {
	r := &AuthRecorder{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Sign-in and sign-up attempts by operation and outcome.",
		}, []string{"op", "outcome"}),
		backoff: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auth_throttle_backoff_seconds",
			Help:    "Backoff imposed after a throttled sign-in.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 300},
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_profile_resolution_total",
			Help: "Profile resolutions by source (live, synthesized, cached, minimal).",
		}, []string{"source"}),
		guard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_guard_decisions_total",
			Help: "Route guard decisions by resulting state.",
		}, []string{"state"}),
	}
	reg.MustRegister(r.attempts, r.backoff, r.resolutions, r.guard)
	return r
}

func (r *AuthRecorder) Attempt(op, outcome string) {
	r.attempts.WithLabelValues(op, outcome).Inc()
}

func (r *AuthRecorder) Throttled(backoff time.Duration) {
	r.backoff.Observe(backoff.Seconds())
}

func (r *AuthRecorder) Resolution(source auth.ProfileSource) {
	r.resolutions.WithLabelValues(string(source)).Inc()
}

func (r *AuthRecorder) GuardDecision(state auth.GuardState) {
	r.guard.WithLabelValues(string(state)).Inc()
}

// Handler exposición Prometheus del registro por defecto.
func Handler() http.Handler {
	return promhttp.Handler()
}
