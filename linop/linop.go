// Package linop defines the linear-operator contract consumed by the kpm
// estimator and provides the common implementations: a complex Hermitian
// CSR sparse matrix, adapters for gonum dense matrices, and a closure
// adapter for opaque operators.
package linop

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatVec is the contract for a Hermitian linear operator of dimension n.
// Implementations must not retain or modify v, and must write the product
// into dst without allocating.
type MatVec interface {
	// Dim returns the dimension n of the operator.
	Dim() int
	// MatVec computes dst = A·v. Both slices have length Dim().
	MatVec(dst, v []complex128)
}

// Func adapts a closure to the MatVec contract, for operators that are
// never materialized as matrices.
type Func struct {
	N     int
	Apply func(dst, v []complex128)
}

// Dim returns the dimension of the operator.
func (f Func) Dim() int { return f.N }

// MatVec computes dst = A·v via the wrapped closure.
func (f Func) MatVec(dst, v []complex128) { f.Apply(dst, v) }

// Dense wraps a gonum complex matrix as a MatVec operator.
type Dense struct {
	m mat.CMatrix
	n int
}

// NewDense wraps a square gonum complex matrix. The matrix is borrowed, not
// copied, and is expected to be Hermitian.
func NewDense(m mat.CMatrix) (*Dense, error) {
	r, c := m.Dims()
	if r != c || r == 0 {
		return nil, fmt.Errorf("linop: matrix must be square and non-empty, got %dx%d", r, c)
	}
	return &Dense{m: m, n: r}, nil
}

// Dim returns the dimension of the operator.
func (d *Dense) Dim() int { return d.n }

// MatVec computes dst = A·v by direct row sums.
func (d *Dense) MatVec(dst, v []complex128) {
	for i := 0; i < d.n; i++ {
		var sum complex128
		for j := 0; j < d.n; j++ {
			sum += d.m.At(i, j) * v[j]
		}
		dst[i] = sum
	}
}

// RealDense wraps a real symmetric gonum matrix as a MatVec operator acting
// on complex vectors.
type RealDense struct {
	m mat.Matrix
	n int
}

// NewRealDense wraps a square real gonum matrix, expected to be symmetric.
func NewRealDense(m mat.Matrix) (*RealDense, error) {
	r, c := m.Dims()
	if r != c || r == 0 {
		return nil, fmt.Errorf("linop: matrix must be square and non-empty, got %dx%d", r, c)
	}
	return &RealDense{m: m, n: r}, nil
}

// Dim returns the dimension of the operator.
func (d *RealDense) Dim() int { return d.n }

// MatVec computes dst = A·v by direct row sums.
func (d *RealDense) MatVec(dst, v []complex128) {
	for i := 0; i < d.n; i++ {
		var sum complex128
		for j := 0; j < d.n; j++ {
			sum += complex(d.m.At(i, j), 0) * v[j]
		}
		dst[i] = sum
	}
}

// Diagonal is a real diagonal operator.
type Diagonal struct {
	d []float64
}

// NewDiagonal builds a diagonal operator from its diagonal entries. The
// slice is borrowed.
func NewDiagonal(d []float64) (*Diagonal, error) {
	if len(d) == 0 {
		return nil, fmt.Errorf("linop: diagonal must be non-empty")
	}
	return &Diagonal{d: d}, nil
}

// Dim returns the dimension of the operator.
func (d *Diagonal) Dim() int { return len(d.d) }

// MatVec computes dst = diag(d)·v.
func (d *Diagonal) MatVec(dst, v []complex128) {
	for i, x := range d.d {
		dst[i] = complex(x, 0) * v[i]
	}
}
