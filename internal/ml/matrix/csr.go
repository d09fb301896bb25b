package matrix

import (
	"fmt"
	"sort"
)

// CSR is a compressed sparse row matrix.
type CSR struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

// NewCSR creates a CSR matrix from its raw arrays. indptr must have rows+1
// entries and the column indices of each row must be strictly ascending.
// It panics on malformed input.
func NewCSR(rows, cols int, indptr, indices []int, data []float64) *CSR {
	checkLen("NewCSR indptr", len(indptr), rows+1)
	checkLen("NewCSR data", len(data), len(indices))
	if indptr[rows] != len(indices) {
		panic(fmt.Sprintf("matrix: NewCSR: indptr[%d]=%d but %d stored entries", rows, indptr[rows], len(indices)))
	}
	for _, j := range indices {
		if j < 0 || j >= cols {
			panic(fmt.Sprintf("matrix: NewCSR: column index %d out of range [0,%d)", j, cols))
		}
	}
	return &CSR{rows: rows, cols: cols, indptr: indptr, indices: indices, data: data}
}

// Dims returns the number of rows and columns.
func (m *CSR) Dims() (int, int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int {
	return len(m.data)
}

// At returns the value at row i, column j.
func (m *CSR) At(i, j int) float64 {
	lo, hi := m.indptr[i], m.indptr[i+1]
	k := sort.SearchInts(m.indices[lo:hi], j)
	if k < hi-lo && m.indices[lo+k] == j {
		return m.data[lo+k]
	}
	return 0
}

// SumRows returns the column-wise sum of the given rows.
func (m *CSR) SumRows(rows []int) []float64 {
	sum := make([]float64, m.cols)
	for _, i := range rows {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sum[m.indices[k]] += m.data[k]
		}
	}
	return sum
}

// ScaleColumns returns X·diag(d). Only stored entries are touched, so the
// sparsity pattern is preserved.
func (m *CSR) ScaleColumns(d []float64) Matrix {
	checkLen("ScaleColumns", len(d), m.cols)
	data := make([]float64, len(m.data))
	for k, j := range m.indices {
		data[k] = m.data[k] * d[j]
	}
	return &CSR{rows: m.rows, cols: m.cols, indptr: m.indptr, indices: m.indices, data: data}
}

// MulVec returns X·w.
func (m *CSR) MulVec(w []float64) []float64 {
	checkLen("MulVec", len(w), m.cols)
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		var s float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			s += m.data[k] * w[m.indices[k]]
		}
		out[i] = s
	}
	return out
}

// TMulVec returns Xᵀ·v.
func (m *CSR) TMulVec(v []float64) []float64 {
	checkLen("TMulVec", len(v), m.rows)
	out := make([]float64, m.cols)
	for i := 0; i < m.rows; i++ {
		if v[i] == 0 {
			continue
		}
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			out[m.indices[k]] += m.data[k] * v[i]
		}
	}
	return out
}

// DoRowNonZero calls fn for every stored entry of row i.
func (m *CSR) DoRowNonZero(i int, fn func(j int, v float64)) {
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		if m.data[k] != 0 {
			fn(m.indices[k], m.data[k])
		}
	}
}

// CSRBuilder assembles a CSR matrix one row at a time.
type CSRBuilder struct {
	cols    int
	indptr  []int
	indices []int
	data    []float64
}

// NewCSRBuilder returns a builder for a matrix with the given column count.
func NewCSRBuilder(cols int) *CSRBuilder {
	return &CSRBuilder{cols: cols, indptr: []int{0}}
}

// AddRow appends a row given as column -> value. Zero values are dropped.
func (b *CSRBuilder) AddRow(entries map[int]float64) {
	cols := make([]int, 0, len(entries))
	for j, v := range entries {
		if v != 0 {
			cols = append(cols, j)
		}
	}
	sort.Ints(cols)
	for _, j := range cols {
		b.indices = append(b.indices, j)
		b.data = append(b.data, entries[j])
	}
	b.indptr = append(b.indptr, len(b.indices))
}

// Build returns the assembled matrix.
func (b *CSRBuilder) Build() *CSR {
	return NewCSR(len(b.indptr)-1, b.cols, b.indptr, b.indices, b.data)
}
