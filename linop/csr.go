package linop

import (
	"fmt"
	"math/cmplx"
	"sort"
)

// Entry is a single matrix element used to build a CSR matrix.
type Entry struct {
	Row, Col int
	Val      complex128
}

// CSR is a sparse complex matrix in compressed sparse row format. It is
// immutable after construction and safe for concurrent MatVec calls.
type CSR struct {
	n      int
	rowPtr []int
	colIdx []int
	vals   []complex128
}

// NewCSR builds an n×n sparse matrix from coordinate entries. Duplicate
// entries for the same position are summed. The matrix is expected to be
// Hermitian; this is not verified.
func NewCSR(n int, entries []Entry) (*CSR, error) {
	if n <= 0 {
		return nil, fmt.Errorf("linop: dimension must be positive, got %d", n)
	}
	for _, e := range entries {
		if e.Row < 0 || e.Row >= n || e.Col < 0 || e.Col >= n {
			return nil, fmt.Errorf("linop: entry (%d, %d) outside %dx%d matrix", e.Row, e.Col, n, n)
		}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	m := &CSR{
		n:      n,
		rowPtr: make([]int, n+1),
		colIdx: make([]int, 0, len(sorted)),
		vals:   make([]complex128, 0, len(sorted)),
	}
	prevRow, prevCol := -1, -1
	for _, e := range sorted {
		if e.Row == prevRow && e.Col == prevCol {
			m.vals[len(m.vals)-1] += e.Val
			continue
		}
		m.colIdx = append(m.colIdx, e.Col)
		m.vals = append(m.vals, e.Val)
		m.rowPtr[e.Row+1] = len(m.colIdx)
		prevRow, prevCol = e.Row, e.Col
	}
	// forward-fill row pointers over empty rows
	for i := 1; i <= n; i++ {
		if m.rowPtr[i] < m.rowPtr[i-1] {
			m.rowPtr[i] = m.rowPtr[i-1]
		}
	}
	return m, nil
}

// NewHermitianCSR builds a Hermitian matrix from its diagonal and
// upper-triangle entries: every off-diagonal entry (i, j, v) is mirrored as
// (j, i, conj v). Entries on the diagonal must be real.
func NewHermitianCSR(n int, entries []Entry) (*CSR, error) {
	full := make([]Entry, 0, 2*len(entries))
	for _, e := range entries {
		if e.Row == e.Col {
			if imag(e.Val) != 0 {
				return nil, fmt.Errorf("linop: diagonal entry (%d, %d) must be real, got %v", e.Row, e.Col, e.Val)
			}
			full = append(full, e)
			continue
		}
		full = append(full, e, Entry{Row: e.Col, Col: e.Row, Val: cmplx.Conj(e.Val)})
	}
	return NewCSR(n, full)
}

// Dim returns the dimension of the matrix.
func (m *CSR) Dim() int { return m.n }

// NNZ returns the number of stored nonzero entries.
func (m *CSR) NNZ() int { return len(m.vals) }

// MatVec computes dst = A·v.
func (m *CSR) MatVec(dst, v []complex128) {
	for i := 0; i < m.n; i++ {
		var sum complex128
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.vals[k] * v[m.colIdx[k]]
		}
		dst[i] = sum
	}
}

// At returns the element at (i, j). Intended for tests and debugging; it is
// O(nnz per row).
func (m *CSR) At(i, j int) complex128 {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		if m.colIdx[k] == j {
			return m.vals[k]
		}
	}
	return 0
}
