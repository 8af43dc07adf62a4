package auth

import "time"

// Recorder recibe los eventos observables del subsistema (lo implementa infrastructure/metrics).
type Recorder interface {
	Attempt(op, outcome string) // op: signin o signup
	Throttled(backoff time.Duration)
	Resolution(source ProfileSource)
	GuardDecision(state GuardState)
}

type nopRecorder struct{}

func (nopRecorder) Attempt(string, string)   {}
func (nopRecorder) Throttled(time.Duration)  {}
func (nopRecorder) Resolution(ProfileSource) {}
func (nopRecorder) GuardDecision(GuardState) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
