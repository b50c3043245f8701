// Package lanczos computes extremal eigenvalues of Hermitian linear
// operators given only a matrix-vector product. It is the bounds primitive
// behind the kpm spectral rescaler: one extremal eigenvalue per call, to a
// caller-supplied tolerance, seeded with a caller-supplied start vector.
package lanczos

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/sandeshkalantre/kwant/linop"
)

// Which selects the extremal eigenvalue to compute.
type Which int

const (
	// Largest selects the largest algebraic eigenvalue.
	Largest Which = iota
	// Smallest selects the smallest algebraic eigenvalue.
	Smallest
)

// maxIter caps the Krylov subspace dimension independent of n.
const maxIter = 256

// Extremal computes one extremal eigenvalue of the Hermitian operator op.
//
// v0 seeds the iteration and may be nil, in which case a deterministic
// pseudo-random start vector is used. Convergence is declared when the Ritz
// residual bound drops below tol·max(1, |θ|). The operator is only accessed
// through MatVec.
func Extremal(op linop.MatVec, which Which, tol float64, v0 []complex128) (float64, error) {
	n := op.Dim()
	if n <= 0 {
		return 0, fmt.Errorf("lanczos: operator has invalid dimension %d", n)
	}
	if tol <= 0 {
		return 0, fmt.Errorf("lanczos: tolerance must be positive, got %g", tol)
	}

	q := make([]complex128, n)
	if v0 != nil {
		if len(v0) != n {
			return 0, fmt.Errorf("lanczos: start vector has length %d, want %d", len(v0), n)
		}
		copy(q, v0)
	} else {
		rng := rand.New(rand.NewSource(1))
		for i := range q {
			q[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		}
	}
	if norm(q) == 0 {
		return 0, fmt.Errorf("lanczos: start vector is zero")
	}
	scale(q, 1/norm(q))

	// n == 1: the single diagonal element is the spectrum.
	if n == 1 {
		w := make([]complex128, 1)
		op.MatVec(w, q)
		return real(w[0] * cmplx.Conj(q[0])), nil
	}

	steps := maxIter
	if n < steps {
		steps = n
	}

	var (
		alphas, betas []float64
		basis         = [][]complex128{append([]complex128(nil), q...)}
		w             = make([]complex128, n)
	)
	for k := 0; ; k++ {
		op.MatVec(w, basis[k])
		alpha := real(dot(basis[k], w))
		alphas = append(alphas, alpha)

		// w -= alpha·q_k + beta_{k-1}·q_{k-1}
		axpy(-complex(alpha, 0), basis[k], w)
		if k > 0 {
			axpy(-complex(betas[k-1], 0), basis[k-1], w)
		}
		// full reorthogonalization keeps the tridiagonal honest for the
		// subspace sizes used here
		for _, b := range basis {
			axpy(-dot(b, w), b, w)
		}

		beta := norm(w)
		theta, last := ritzExtremal(alphas, betas, which)
		// |λ - θ| ≤ β·|s_k|, the residual norm of the Ritz pair
		if beta*math.Abs(last) <= tol*math.Max(1, math.Abs(theta)) ||
			beta == 0 || k == steps-1 {
			return theta, nil
		}

		betas = append(betas, beta)
		next := make([]complex128, n)
		copy(next, w)
		scale(next, 1/beta)
		basis = append(basis, next)
	}
}

// ritzExtremal returns the extremal eigenvalue of the tridiagonal matrix
// with diagonal alphas and off-diagonal betas, together with the last
// component of its eigenvector (which bounds the Ritz residual).
func ritzExtremal(alphas, betas []float64, which Which) (theta, last float64) {
	k := len(alphas)
	if k == 1 {
		return alphas[0], 1
	}
	tri := mat.NewSymBandDense(k, 1, nil)
	for i, a := range alphas {
		tri.SetSymBand(i, i, a)
		if i < k-1 {
			tri.SetSymBand(i, i+1, betas[i])
		}
	}
	var es mat.EigenSym
	if !es.Factorize(tri, true) {
		// should not happen for a real symmetric tridiagonal
		panic("lanczos: tridiagonal eigendecomposition failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	j := 0
	if which == Largest {
		j = k - 1
	}
	return vals[j], vecs.At(k-1, j)
}

func dot(x, y []complex128) complex128 {
	var sum complex128
	for i := range x {
		sum += cmplx.Conj(x[i]) * y[i]
	}
	return sum
}

func norm(x []complex128) float64 {
	return math.Sqrt(real(dot(x, x)))
}

func scale(x []complex128, c float64) {
	for i := range x {
		x[i] *= complex(c, 0)
	}
}

func axpy(a complex128, x, y []complex128) {
	for i := range y {
		y[i] += a * x[i]
	}
}
