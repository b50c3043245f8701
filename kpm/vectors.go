package kpm

import (
	"math"
	"math/cmplx"
	"math/rand"
)

// VectorSource supplies the stochastic probe vectors for trace estimation.
// Implementations must be deterministic given their generator's seed, and
// every call must return a fresh, independent vector.
type VectorSource interface {
	// Vector returns a new probe vector of length n.
	Vector(n int) []complex128
}

// RandomPhase is the default VectorSource: every component has unit
// magnitude and a phase drawn uniformly from [0, 2π). These vectors minimize
// the variance of the stochastic trace estimate.
type RandomPhase struct {
	rng *rand.Rand
}

// NewRandomPhase returns a random-phase source backed by rng.
func NewRandomPhase(rng *rand.Rand) *RandomPhase {
	return &RandomPhase{rng: rng}
}

// Vector returns a fresh random-phase vector of length n.
func (s *RandomPhase) Vector(n int) []complex128 {
	v := make([]complex128, n)
	for i := range v {
		v[i] = cmplx.Exp(complex(0, 2*math.Pi*s.rng.Float64()))
	}
	return v
}

// SourceFunc adapts a plain function to the VectorSource contract.
type SourceFunc func(n int) []complex128

// Vector returns f(n).
func (f SourceFunc) Vector(n int) []complex128 { return f(n) }
