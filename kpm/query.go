package kpm

import (
	"math"
	"math/cmplx"
)

// Eval returns the spectral density at an arbitrary energy, not necessarily
// a grid point, by direct evaluation of the truncated, kernel-damped
// Chebyshev series. Outside the spectral bounds the density is zero. Eval
// requires a scalar density (OutputDim 1); use EvalLocal otherwise.
func (sd *SpectralDensity) Eval(energy float64) float64 {
	return sd.EvalLocal(energy)[0]
}

// EvalRange evaluates the density at each energy in energies.
func (sd *SpectralDensity) EvalRange(energies []float64) []float64 {
	out := make([]float64, len(energies))
	for i, e := range energies {
		out[i] = sd.Eval(e)
	}
	return out
}

// EvalLocal is Eval for vector-valued operators: it returns one density per
// operator output component.
//
// The series coefficients are recomputed from the current moments on every
// call, which is cheap next to moment accumulation and guarantees the result
// reflects the current accuracy.
func (sd *SpectralDensity) EvalLocal(energy float64) []float64 {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	moments := sd.normalizedMoments()
	kernel := jacksonKernel(sd.numMoments)

	x := complex((energy-sd.b)/sd.a, 0)
	// complex square roots: beyond ±1 the weight is imaginary and the
	// recovered real part vanishes, so out-of-band energies read as zero
	ge := complex(math.Pi, 0) * cmplx.Sqrt(1-x) * cmplx.Sqrt(1+x)

	out := make([]float64, sd.outDim)
	coeff := make([]complex128, sd.numMoments)
	for j := 0; j < sd.outDim; j++ {
		for k := 0; k < sd.numMoments; k++ {
			c := complex(moments[k][j]*kernel[k], 0)
			if k > 0 {
				c *= 2
			}
			coeff[k] = c
		}
		out[j] = real(clenshaw(coeff, x) / ge)
	}
	return out
}

// clenshaw evaluates Σ_k coeff[k]·T_k(x) by the Clenshaw recurrence.
func clenshaw(coeff []complex128, x complex128) complex128 {
	var b1, b2 complex128
	for k := len(coeff) - 1; k >= 1; k-- {
		b1, b2 = coeff[k]+2*x*b1-b2, b1
	}
	return coeff[0] + x*b1 - b2
}

// Average integrates the measured density over the whole spectrum by
// Gauss–Chebyshev quadrature, optionally weighted by a distribution
// function evaluated at the physical (unrescaled) energies. A nil
// distribution integrates the density itself. Average requires a scalar
// density (OutputDim 1); use AverageLocal otherwise.
func (sd *SpectralDensity) Average(distribution func(energy float64) float64) float64 {
	return sd.AverageLocal(distribution)[0]
}

// AverageLocal is Average for vector-valued operators.
func (sd *SpectralDensity) AverageLocal(distribution func(energy float64) float64) []float64 {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	// a/N normalizes the Gauss sum and undoes the rescaling of the measure
	factor := sd.a / float64(sd.numPoints)
	out := make([]float64, sd.outDim)
	for k, gam := range sd.gammas {
		w := 1.0
		if distribution != nil {
			w = distribution(sd.energies[k])
		}
		for j := range out {
			out[j] += gam[j] * w
		}
	}
	for j := range out {
		out[j] *= factor
	}
	return out
}
