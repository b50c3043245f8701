package kpm

import (
	"fmt"
	"math"

	"github.com/sandeshkalantre/kwant/lanczos"
	"github.com/sandeshkalantre/kwant/linop"
)

// rescaled maps a Hermitian operator H to (H - b·I)/a, whose spectrum lies
// strictly inside (-1, 1). It is stateless: concurrent MatVec calls with
// distinct destination vectors are safe.
type rescaled struct {
	h    linop.MatVec
	a, b float64
}

func (r *rescaled) Dim() int { return r.h.Dim() }

func (r *rescaled) MatVec(dst, v []complex128) {
	r.h.MatVec(dst, v)
	inv := complex(1/r.a, 0)
	shift := complex(r.b, 0)
	for i := range dst {
		dst[i] = (dst[i] - shift*v[i]) * inv
	}
}

// rescale determines the affine map e ↦ (e-b)/a that sends the spectrum of
// h into (-1, 1) with stability margin epsilon, and returns the lazily
// rescaled operator. Explicit bounds are used when supplied; otherwise the
// extremal eigenvalues are computed with the Lanczos primitive, seeded with
// v0 at tolerance epsilon/2.
func rescale(h linop.MatVec, epsilon float64, v0 []complex128, bounds *[2]float64) (*rescaled, float64, float64, error) {
	tol := epsilon / 2

	var lmin, lmax float64
	if bounds != nil {
		lmin, lmax = bounds[0], bounds[1]
	} else {
		var err error
		lmax, err = lanczos.Extremal(h, lanczos.Largest, tol, v0)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("kpm: computing largest eigenvalue: %w", err)
		}
		lmin, err = lanczos.Extremal(h, lanczos.Smallest, tol, v0)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("kpm: computing smallest eigenvalue: %w", err)
		}
	}

	if lmax-lmin <= math.Abs(lmax+lmin)*tol/2 {
		return nil, 0, 0, fmt.Errorf("%w: bounds (%g, %g)", ErrDegenerateSpectrum, lmin, lmax)
	}

	a := math.Abs(lmax-lmin) / (2 - epsilon)
	b := (lmax + lmin) / 2
	return &rescaled{h: h, a: a, b: b}, a, b, nil
}
