package kpm

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// jacksonKernel returns the damping coefficients
//
//	g_k = [(M-k+1)·cos(πk/(M+1)) + sin(πk/(M+1))·cot(π/(M+1))] / (M+1)
//
// which give the optimal tradeoff between energy resolution and suppression
// of Gibbs oscillations for a series truncated at M moments.
func jacksonKernel(m int) []float64 {
	g := make([]float64, m)
	mp1 := float64(m + 1)
	cot := 1 / math.Tan(math.Pi/mp1)
	for k := range g {
		fk := float64(k)
		g[k] = ((float64(m)-fk+1)*math.Cos(math.Pi*fk/mp1) +
			math.Sin(math.Pi*fk/mp1)*cot) / mp1
	}
	return g
}

// chebyshevGrid evaluates the kernel-damped moment series on the nPoints
// Chebyshev-Gauss abscissas x_k = cos(π(k+0.5)/nPoints) via a type-III
// discrete cosine transform. It returns the abscissas in ascending order
// together with the densities and the raw transform values (gammas), one
// row per abscissa with one column per operator output component.
func chebyshevGrid(moments [][]float64, nPoints int) (xk []float64, rho, gammas [][]float64) {
	nMoments := len(moments)
	dim := len(moments[0])
	kernel := jacksonKernel(nMoments)

	xk = make([]float64, nPoints)
	gk := make([]float64, nPoints)
	rho = make([][]float64, nPoints)
	gammas = make([][]float64, nPoints)
	for k := 0; k < nPoints; k++ {
		xk[k] = math.Cos(math.Pi * (float64(k) + 0.5) / float64(nPoints))
		gk[k] = math.Pi * math.Sqrt(1-xk[k]*xk[k])
		rho[k] = make([]float64, dim)
		gammas[k] = make([]float64, dim)
	}

	// CosCoefficients is the type-III cosine transform: applied to the
	// zero-padded, kernel-damped moments it yields exactly the series
	// Σ_m (2-δ_m0)·g_m·μ_m·T_m(x_k).
	plan := fourier.NewQuarterWaveFFT(nPoints)
	coeff := make([]float64, nPoints)
	for j := 0; j < dim; j++ {
		for k := range coeff {
			coeff[k] = 0
		}
		for k := 0; k < nMoments; k++ {
			coeff[k] = moments[k][j] * kernel[k]
		}
		g := plan.CosCoefficients(nil, coeff)
		for k := 0; k < nPoints; k++ {
			gammas[k][j] = g[k]
			rho[k][j] = g[k] / gk[k]
		}
	}

	// the abscissa formula descends; return everything ascending
	floats.Reverse(xk)
	reverseRows(rho)
	reverseRows(gammas)
	return xk, rho, gammas
}

func reverseRows(rows [][]float64) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
