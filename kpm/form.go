package kpm

import (
	"fmt"
	"math/cmplx"

	"github.com/sandeshkalantre/kwant/linop"
)

// BilinearForm is the capability behind operator-weighted spectral
// densities: a weighted inner product between two state vectors. A scalar
// form has OutputDim 1; a form with OutputDim d > 1 produces local (per
// component) densities. Apply may be called concurrently from the per-probe
// workers, so implementations must not mutate shared state.
type BilinearForm interface {
	// Apply evaluates the form between bra and ket. The returned slice has
	// length OutputDim and may be retained by the caller.
	Apply(bra, ket []complex128) []complex128
	// OutputDim is the length of the slices returned by Apply.
	OutputDim() int
}

// MatrixForm is the bilinear form ⟨bra, A·ket⟩ for a matvec operator A.
type MatrixForm struct {
	op linop.MatVec
}

// NewMatrixForm wraps a matvec operator as a scalar bilinear form.
func NewMatrixForm(op linop.MatVec) *MatrixForm {
	return &MatrixForm{op: op}
}

// OutputDim returns 1: matrix-backed forms are scalar.
func (f *MatrixForm) OutputDim() int { return 1 }

// Apply computes ⟨bra, A·ket⟩.
func (f *MatrixForm) Apply(bra, ket []complex128) []complex128 {
	buf := make([]complex128, f.op.Dim())
	f.op.MatVec(buf, ket)
	var sum complex128
	for i := range bra {
		sum += cmplx.Conj(bra[i]) * buf[i]
	}
	return []complex128{sum}
}

// FormFunc adapts a scalar closure to the BilinearForm contract.
type FormFunc func(bra, ket []complex128) complex128

// Apply evaluates the wrapped closure.
func (f FormFunc) Apply(bra, ket []complex128) []complex128 {
	return []complex128{f(bra, ket)}
}

// OutputDim returns 1.
func (f FormFunc) OutputDim() int { return 1 }

// normalizeOperator coerces the accepted operator representations into a
// BilinearForm: a BilinearForm is used as-is, a matvec operator is wrapped
// as ⟨bra, A·ket⟩, and a bare scalar closure is adapted. Anything else is
// an ErrInvalidOperator.
func normalizeOperator(op any, n int) (BilinearForm, error) {
	switch v := op.(type) {
	case nil:
		return nil, nil
	case BilinearForm:
		return v, nil
	case linop.MatVec:
		if v.Dim() != n {
			return nil, fmt.Errorf("%w: operator dimension %d does not match hamiltonian dimension %d",
				ErrInvalidOperator, v.Dim(), n)
		}
		return NewMatrixForm(v), nil
	case func(bra, ket []complex128) complex128:
		return FormFunc(v), nil
	default:
		return nil, fmt.Errorf("%w: %T is neither a BilinearForm, a linop.MatVec, nor a form func", ErrInvalidOperator, op)
	}
}
