package lanczos

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/sandeshkalantre/kwant/linop"
)

func TestExtremalDiagonal(t *testing.T) {
	diag := []float64{-3.5, -1, 0, 0.25, 2, 7.5}
	op, err := linop.NewDiagonal(diag)
	if err != nil {
		t.Fatalf("NewDiagonal() error = %v", err)
	}

	lmax, err := Extremal(op, Largest, 1e-10, nil)
	if err != nil {
		t.Fatalf("Extremal(Largest) error = %v", err)
	}
	if math.Abs(lmax-7.5) > 1e-6 {
		t.Errorf("Extremal(Largest) = %v, want 7.5", lmax)
	}

	lmin, err := Extremal(op, Smallest, 1e-10, nil)
	if err != nil {
		t.Fatalf("Extremal(Smallest) error = %v", err)
	}
	if math.Abs(lmin-(-3.5)) > 1e-6 {
		t.Errorf("Extremal(Smallest) = %v, want -3.5", lmin)
	}
}

func TestExtremalChain(t *testing.T) {
	// Open tight-binding chain: eigenvalues -2cos(kπ/(n+1)), so the
	// extremes are ±2cos(π/(n+1)).
	const n = 32
	entries := make([]linop.Entry, 0, n-1)
	for i := 0; i < n-1; i++ {
		entries = append(entries, linop.Entry{Row: i, Col: i + 1, Val: -1})
	}
	op, err := linop.NewHermitianCSR(n, entries)
	if err != nil {
		t.Fatalf("NewHermitianCSR() error = %v", err)
	}

	want := 2 * math.Cos(math.Pi/(n+1))
	lmax, err := Extremal(op, Largest, 1e-10, nil)
	if err != nil {
		t.Fatalf("Extremal(Largest) error = %v", err)
	}
	if math.Abs(lmax-want) > 1e-6 {
		t.Errorf("Extremal(Largest) = %v, want %v", lmax, want)
	}
	lmin, err := Extremal(op, Smallest, 1e-10, nil)
	if err != nil {
		t.Fatalf("Extremal(Smallest) error = %v", err)
	}
	if math.Abs(lmin+want) > 1e-6 {
		t.Errorf("Extremal(Smallest) = %v, want %v", -want, lmin)
	}
}

func TestExtremalAgainstDenseEigen(t *testing.T) {
	const n = 24
	rng := rand.New(rand.NewSource(11))
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, rng.NormFloat64())
		}
	}

	var es mat.EigenSym
	if !es.Factorize(sym, false) {
		t.Fatal("EigenSym.Factorize failed")
	}
	vals := es.Values(nil)

	op, err := linop.NewRealDense(sym)
	if err != nil {
		t.Fatalf("NewRealDense() error = %v", err)
	}

	lmax, err := Extremal(op, Largest, 1e-10, nil)
	if err != nil {
		t.Fatalf("Extremal(Largest) error = %v", err)
	}
	if math.Abs(lmax-vals[n-1]) > 1e-6 {
		t.Errorf("Extremal(Largest) = %v, dense eigen = %v", lmax, vals[n-1])
	}
	lmin, err := Extremal(op, Smallest, 1e-10, nil)
	if err != nil {
		t.Fatalf("Extremal(Smallest) error = %v", err)
	}
	if math.Abs(lmin-vals[0]) > 1e-6 {
		t.Errorf("Extremal(Smallest) = %v, dense eigen = %v", lmin, vals[0])
	}
}

func TestExtremalSingleElement(t *testing.T) {
	op, err := linop.NewDiagonal([]float64{-0.75})
	if err != nil {
		t.Fatalf("NewDiagonal() error = %v", err)
	}
	got, err := Extremal(op, Largest, 1e-6, nil)
	if err != nil {
		t.Fatalf("Extremal() error = %v", err)
	}
	if math.Abs(got-(-0.75)) > 1e-12 {
		t.Errorf("Extremal() = %v, want -0.75", got)
	}
}

func TestExtremalSeedVector(t *testing.T) {
	op, err := linop.NewDiagonal([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("NewDiagonal() error = %v", err)
	}
	v0 := []complex128{1, 1, 1}
	got, err := Extremal(op, Largest, 1e-10, v0)
	if err != nil {
		t.Fatalf("Extremal() error = %v", err)
	}
	if math.Abs(got-3) > 1e-6 {
		t.Errorf("Extremal() = %v, want 3", got)
	}
	// the seed vector must not be modified
	for i, v := range v0 {
		if v != 1 {
			t.Errorf("seed vector modified at %d: %v", i, v)
		}
	}
}

func TestExtremalErrors(t *testing.T) {
	op, _ := linop.NewDiagonal([]float64{1, 2})
	tests := []struct {
		name string
		op   linop.MatVec
		tol  float64
		v0   []complex128
	}{
		{name: "zero tolerance", op: op, tol: 0, v0: nil},
		{name: "wrong seed length", op: op, tol: 1e-6, v0: []complex128{1}},
		{name: "zero seed vector", op: op, tol: 1e-6, v0: []complex128{0, 0}},
		{name: "zero dimension", op: linop.Func{N: 0, Apply: nil}, tol: 1e-6, v0: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Extremal(tt.op, Largest, tt.tol, tt.v0); err == nil {
				t.Error("Extremal(): expected error")
			}
		})
	}
}
