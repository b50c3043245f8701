package kpm

import (
	"errors"
	"math"
	"testing"

	"github.com/sandeshkalantre/kwant/linop"
)

func diagHam(t *testing.T, diag []float64) *linop.Diagonal {
	t.Helper()
	h, err := linop.NewDiagonal(diag)
	if err != nil {
		t.Fatalf("NewDiagonal() error = %v", err)
	}
	return h
}

func TestRescaleExplicitBounds(t *testing.T) {
	h := diagHam(t, []float64{-3, 0, 5})
	eps := 0.05
	bounds := [2]float64{-3, 5}

	r, a, b, err := rescale(h, eps, nil, &bounds)
	if err != nil {
		t.Fatalf("rescale() error = %v", err)
	}
	wantA := 8 / (2 - eps)
	if math.Abs(a-wantA) > 1e-14 {
		t.Errorf("a = %v, want %v", a, wantA)
	}
	if math.Abs(b-1) > 1e-14 {
		t.Errorf("b = %v, want 1", b)
	}
	if r.a != a || r.b != b {
		t.Errorf("rescaled carries (%v, %v), want (%v, %v)", r.a, r.b, a, b)
	}
}

func TestRescaledMatVecMapsSpectrum(t *testing.T) {
	// for a diagonal operator the rescaled eigenvalues are directly visible
	// on the basis vectors and must land strictly inside (-1, 1)
	diag := []float64{-2.5, -1, 0.25, 4}
	h := diagHam(t, diag)
	bounds := [2]float64{-2.5, 4}

	r, a, b, err := rescale(h, 0.05, nil, &bounds)
	if err != nil {
		t.Fatalf("rescale() error = %v", err)
	}

	v := make([]complex128, len(diag))
	dst := make([]complex128, len(diag))
	for i, d := range diag {
		for j := range v {
			v[j] = 0
		}
		v[i] = 1
		r.MatVec(dst, v)
		got := real(dst[i])
		want := (d - b) / a
		if math.Abs(got-want) > 1e-14 {
			t.Errorf("eigenvalue %v rescaled to %v, want %v", d, got, want)
		}
		if got <= -1 || got >= 1 {
			t.Errorf("rescaled eigenvalue %v outside (-1, 1)", got)
		}
	}
}

func TestRescaleLanczosBounds(t *testing.T) {
	// without explicit bounds the extremal eigenvalues come from the
	// iterative primitive; the diagonal makes the exact answer known
	h := diagHam(t, []float64{-1.5, -0.25, 0.5, 2})
	v0 := []complex128{1, 1, 1, 1}

	_, a, b, err := rescale(h, 0.05, v0, nil)
	if err != nil {
		t.Fatalf("rescale() error = %v", err)
	}
	if math.Abs(b-0.25) > 1e-6 {
		t.Errorf("b = %v, want 0.25", b)
	}
	wantA := 3.5 / (2 - 0.05)
	if math.Abs(a-wantA) > 1e-6 {
		t.Errorf("a = %v, want %v", a, wantA)
	}
}

func TestRescaleDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		bounds [2]float64
	}{
		{"identical bounds", [2]float64{2, 2}},
		{"width below tolerance", [2]float64{4, 4 + 1e-6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := diagHam(t, []float64{tt.bounds[0], tt.bounds[1]})
			bounds := tt.bounds
			_, _, _, err := rescale(h, 0.05, nil, &bounds)
			if !errors.Is(err, ErrDegenerateSpectrum) {
				t.Errorf("rescale() error = %v, want ErrDegenerateSpectrum", err)
			}
		})
	}
}

func TestRescaleZeroCenteredNarrow(t *testing.T) {
	// a narrow spectrum centered at zero is legitimate, not degenerate:
	// the tolerance test is relative to the center
	bounds := [2]float64{-1e-6, 1e-6}
	h := diagHam(t, []float64{-1e-6, 1e-6})
	_, a, b, err := rescale(h, 0.05, nil, &bounds)
	if err != nil {
		t.Fatalf("rescale() error = %v", err)
	}
	if b != 0 {
		t.Errorf("b = %v, want 0", b)
	}
	if a <= 0 {
		t.Errorf("a = %v, want positive", a)
	}
}
