// Package kpm estimates the spectral density of an operator with respect to
// a large sparse Hermitian matrix using the kernel polynomial method: a
// stochastic Chebyshev expansion damped with the Jackson kernel, evaluated
// on Chebyshev-Gauss abscissas through a type-III discrete cosine transform.
//
// The estimator accumulates work incrementally: the number of random probe
// vectors, the number of Chebyshev moments, and the sampling resolution can
// all be raised after construction without discarding moments that were
// already computed.
package kpm

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/sandeshkalantre/kwant/linop"
)

// SpectralDensity estimates ρ_A(e) for an operator A over the spectrum of a
// Hermitian matrix H. With no operator it estimates the density of states.
// All exported methods are safe for concurrent use.
type SpectralDensity struct {
	src  linop.MatVec // the caller's Hamiltonian, borrowed
	ham  linop.MatVec // rescaled to spectrum inside (-1, 1)
	form BilinearForm // nil selects the density-of-states fast path

	dim     int     // dimension n of the Hamiltonian
	outDim  int     // components per moment (1 for scalar densities)
	a, b    float64 // spectrum rescaling: e ↦ (e-b)/a
	epsilon float64 // stability margin keeping the spectrum off ±1

	numMoments  int // M, grows monotonically
	numRandVecs int // R, grows monotonically
	numPoints   int // N ≥ M, sampling resolution

	source  VectorSource
	v0      []complex128 // seed vector for the eigenvalue bounds, retained
	slots   []probeSlot  // per-probe accumulation state
	workers int          // bound on concurrent per-probe workers

	// derived outputs, rebuilt whenever M, R or N changes
	energies  []float64
	densities [][]float64
	gammas    [][]float64

	warnf func(format string, args ...any)
	mu    sync.RWMutex
}

// config collects the constructor parameters before validation.
type config struct {
	numMoments  int
	numRandVecs int
	numPoints   int
	epsilon     float64
	bounds      *[2]float64
	rng         *rand.Rand
	source      VectorSource
	operator    any
	workers     int
	warnf       func(format string, args ...any)
}

// Option configures a SpectralDensity.
type Option func(*config)

// WithNumMoments sets the order M of the Chebyshev expansion (default 100).
func WithNumMoments(m int) Option {
	return func(c *config) { c.numMoments = m }
}

// WithNumRandVecs sets the number R of random probe vectors (default 10).
func WithNumRandVecs(r int) Option {
	return func(c *config) { c.numRandVecs = r }
}

// WithNumSamplingPoints sets the resolution N of the output energy grid
// (default 2·M). N must be at least the number of moments.
func WithNumSamplingPoints(n int) Option {
	return func(c *config) { c.numPoints = n }
}

// WithEpsilon sets the stability margin keeping the rescaled spectrum away
// from ±1 (default 0.05).
func WithEpsilon(eps float64) Option {
	return func(c *config) { c.epsilon = eps }
}

// WithBounds supplies explicit extremal eigenvalues, skipping the Lanczos
// bound computation.
func WithBounds(min, max float64) Option {
	return func(c *config) { c.bounds = &[2]float64{min, max} }
}

// WithRandomSeed seeds the internal random number generator for
// reproducibility. A zero seed picks a time-based one.
func WithRandomSeed(seed int64) Option {
	return func(c *config) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRNG supplies the random number generator used by the default vector
// source. The generator is never shared with package-global state.
func WithRNG(rng *rand.Rand) Option {
	return func(c *config) { c.rng = rng }
}

// WithVectorSource replaces the default random-phase probe vectors.
func WithVectorSource(src VectorSource) Option {
	return func(c *config) { c.source = src }
}

// WithOperator sets the operator whose spectral density is measured. It
// accepts a BilinearForm, a linop.MatVec (wrapped as ⟨bra, A·ket⟩), or a
// func(bra, ket []complex128) complex128. Without an operator the plain
// density of states is computed with half the matrix-vector products.
func WithOperator(op any) Option {
	return func(c *config) { c.operator = op }
}

// WithWorkers bounds the number of goroutines used for per-probe recurrence
// updates (default GOMAXPROCS). One worker forces a serial update.
func WithWorkers(w int) Option {
	return func(c *config) { c.workers = w }
}

// WithWarningHandler replaces the handler for non-fatal warnings, such as
// ignored shrink requests. The default writes to the standard logger.
func WithWarningHandler(f func(format string, args ...any)) Option {
	return func(c *config) { c.warnf = f }
}

// New builds a SpectralDensity for the Hermitian operator ham and computes
// the initial estimate. The operator is borrowed and must not change while
// the estimator is in use.
func New(ham linop.MatVec, options ...Option) (*SpectralDensity, error) {
	if ham == nil {
		return nil, fmt.Errorf("%w: operator is nil", ErrInvalidMatrix)
	}
	n := ham.Dim()
	if n <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidMatrix, n)
	}

	cfg := &config{
		numMoments:  100,
		numRandVecs: 10,
		epsilon:     0.05,
		workers:     runtime.GOMAXPROCS(0),
		warnf:       log.Printf,
	}
	for _, opt := range options {
		opt(cfg)
	}

	if cfg.numMoments < 2 {
		return nil, fmt.Errorf("kpm: number of moments must be at least 2, got %d", cfg.numMoments)
	}
	if cfg.numRandVecs < 1 {
		return nil, fmt.Errorf("kpm: number of random vectors must be at least 1, got %d", cfg.numRandVecs)
	}
	if cfg.epsilon <= 0 || cfg.epsilon >= 2 {
		return nil, fmt.Errorf("kpm: epsilon must be in (0, 2), got %g", cfg.epsilon)
	}
	if cfg.numPoints == 0 {
		cfg.numPoints = 2 * cfg.numMoments
	}
	if cfg.numPoints < cfg.numMoments {
		return nil, fmt.Errorf("%w: %d points for %d moments",
			ErrInsufficientSamplingResolution, cfg.numPoints, cfg.numMoments)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.source == nil {
		cfg.source = NewRandomPhase(cfg.rng)
	}

	form, err := normalizeOperator(cfg.operator, n)
	if err != nil {
		return nil, err
	}
	outDim := 1
	if form != nil {
		outDim = form.OutputDim()
		if outDim < 1 {
			return nil, fmt.Errorf("%w: output dimension %d", ErrInvalidOperator, outDim)
		}
	}

	// v0 is retained so the bound computation stays reproducible
	v0 := cfg.source.Vector(n)
	scaled, a, b, err := rescale(ham, cfg.epsilon, v0, cfg.bounds)
	if err != nil {
		return nil, err
	}

	sd := &SpectralDensity{
		src:        ham,
		ham:        scaled,
		form:       form,
		dim:        n,
		outDim:     outDim,
		a:          a,
		b:          b,
		epsilon:    cfg.epsilon,
		numMoments: cfg.numMoments,
		numPoints:  cfg.numPoints,
		source:     cfg.source,
		v0:         v0,
		workers:    cfg.workers,
		warnf:      cfg.warnf,
	}

	sd.slots = make([]probeSlot, cfg.numRandVecs)
	for r := range sd.slots {
		sd.slots[r].vec = cfg.source.Vector(n)
	}
	// numRandVecs is still zero: the first update sees a pure R growth
	if err := sd.updateSlots(sd.numMoments, cfg.numRandVecs); err != nil {
		return nil, err
	}
	sd.numRandVecs = cfg.numRandVecs

	sd.recompute()
	return sd, nil
}

// recompute rebuilds energies, densities and gammas from the current
// moments. Callers must hold the write lock (or be the constructor).
func (sd *SpectralDensity) recompute() {
	xk, rho, gammas := chebyshevGrid(sd.normalizedMoments(), sd.numPoints)
	energies := make([]float64, len(xk))
	for i, x := range xk {
		energies[i] = x*sd.a + sd.b
	}
	sd.energies = energies
	sd.densities = rho
	sd.gammas = gammas
}

// Energies returns the ascending energy grid of length NumSamplingPoints.
func (sd *SpectralDensity) Energies() []float64 {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	return append([]float64(nil), sd.energies...)
}

// Densities returns the spectral density on the energy grid. It requires a
// scalar density (OutputDim 1); use LocalDensities otherwise.
func (sd *SpectralDensity) Densities() []float64 {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	if sd.outDim != 1 {
		panic("kpm: Densities on a vector-valued operator, use LocalDensities")
	}
	out := make([]float64, len(sd.densities))
	for i, row := range sd.densities {
		out[i] = row[0]
	}
	return out
}

// LocalDensities returns the density on the energy grid with one column per
// operator output component.
func (sd *SpectralDensity) LocalDensities() [][]float64 {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	out := make([][]float64, len(sd.densities))
	for i, row := range sd.densities {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Grid returns the energy grid together with the scalar densities.
func (sd *SpectralDensity) Grid() (energies, densities []float64) {
	return sd.Energies(), sd.Densities()
}

// Bounds returns the spectral bounds (b-a, b+a) implied by the rescaling.
// The true spectrum lies inside them up to the epsilon margin.
func (sd *SpectralDensity) Bounds() (min, max float64) {
	return sd.b - sd.a, sd.b + sd.a
}

// NumMoments returns the current order of the expansion.
func (sd *SpectralDensity) NumMoments() int {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	return sd.numMoments
}

// NumRandVecs returns the current number of probe vectors.
func (sd *SpectralDensity) NumRandVecs() int {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	return sd.numRandVecs
}

// NumSamplingPoints returns the resolution of the energy grid.
func (sd *SpectralDensity) NumSamplingPoints() int {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	return sd.numPoints
}

// OutputDim returns the number of components the operator produces per
// energy: 1 for the density of states and scalar forms.
func (sd *SpectralDensity) OutputDim() int { return sd.outDim }

// IncreaseAccuracy grows the moment count, the probe vector count, or the
// sampling resolution; a zero argument keeps the current value. Growth is
// applied in the safe order: new probe vectors are brought up to the old
// moment count first, then all probes advance to the new moment count, and
// the sampling grid is updated last. Previously accumulated moments are
// never recomputed. Requests that would shrink a counter are reported
// through the warning handler and ignored. If the effective sampling
// resolution would fall below the effective moment count the call fails with
// ErrInsufficientSamplingResolution before any state is modified.
func (sd *SpectralDensity) IncreaseAccuracy(numMoments, numRandVecs, numSamplingPoints int) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	mReq, rReq, nReq := numMoments, numRandVecs, numSamplingPoints
	if mReq == 0 {
		mReq = sd.numMoments
	}
	if rReq == 0 {
		rReq = sd.numRandVecs
	}
	if nReq == 0 {
		nReq = sd.numPoints
	}

	effM := max(mReq, sd.numMoments)
	if nReq < effM {
		return fmt.Errorf("%w: %d points for %d moments", ErrInsufficientSamplingResolution, nReq, effM)
	}

	// 1st: new random vectors, brought up to the current moment count
	for r := sd.numRandVecs; r < rReq; r++ {
		sd.slots = append(sd.slots, probeSlot{vec: sd.source.Vector(sd.dim)})
	}
	if err := sd.updateSlots(sd.numMoments, rReq); err != nil {
		return err
	}
	if rReq > sd.numRandVecs {
		sd.numRandVecs = rReq
	}

	// 2nd: all vectors resume their recurrence up to the new moment count
	if err := sd.updateSlots(mReq, sd.numRandVecs); err != nil {
		return err
	}
	if mReq > sd.numMoments {
		sd.numMoments = mReq
	}

	// defensive trim of any over-long moment sequence
	for r := range sd.slots {
		if len(sd.slots[r].moments) > sd.numMoments {
			sd.slots[r].moments = sd.slots[r].moments[:sd.numMoments]
		}
	}

	// 3rd: sampling grid and derived densities
	sd.numPoints = nReq
	sd.recompute()
	return nil
}

// IncreaseEnergyResolution raises the sampling resolution until the energy
// grid spacing satisfies tol, scaling the moment count along when
// scaleMoments is set. If the current resolution already satisfies tol the
// request is reported through the warning handler and nothing changes.
func (sd *SpectralDensity) IncreaseEnergyResolution(tol float64, scaleMoments bool) error {
	sd.mu.RLock()
	resolution := 2 * sd.a / (float64(sd.numPoints) / 1.6)
	a := sd.a
	sd.mu.RUnlock()

	if tol > resolution {
		sd.warnf("kpm: energy resolution %g is already smaller than tol %g", resolution, tol)
		return nil
	}
	points := int(math.Ceil(1.6 * 2 * a / tol))
	if scaleMoments {
		return sd.IncreaseAccuracy(points/2, 0, points)
	}
	return sd.IncreaseAccuracy(0, 0, points)
}
