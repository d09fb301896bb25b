package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() [][]float64 {
	return [][]float64{
		{1, 0, 2},
		{0, 3, 0},
		{4, 0, 1},
	}
}

func sampleCSR() *CSR {
	b := NewCSRBuilder(3)
	for _, row := range sampleRows() {
		entries := map[int]float64{}
		for j, v := range row {
			entries[j] = v
		}
		b.AddRow(entries)
	}
	return b.Build()
}

func implementations() map[string]Matrix {
	return map[string]Matrix{
		"csr":   sampleCSR(),
		"dense": DenseFromRows(sampleRows()),
	}
}

func TestCSRBuilder(t *testing.T) {
	m := sampleCSR()

	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 5, m.NNZ())
	assert.Equal(t, 2.0, m.At(0, 2))
	assert.Equal(t, 0.0, m.At(1, 0))
	assert.Equal(t, 3.0, m.At(1, 1))
}

func TestNewCSR_PanicsOnMalformedInput(t *testing.T) {
	assert.Panics(t, func() {
		NewCSR(1, 2, []int{0, 1}, []int{5}, []float64{1})
	})
	assert.Panics(t, func() {
		NewCSR(2, 2, []int{0, 1}, []int{0}, []float64{1})
	})
}

func TestMatrix_SumRows(t *testing.T) {
	for name, m := range implementations() {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, []float64{5, 0, 3}, m.SumRows([]int{0, 2}))
			assert.Equal(t, []float64{0, 3, 0}, m.SumRows([]int{1}))
			assert.Equal(t, []float64{0, 0, 0}, m.SumRows(nil))
		})
	}
}

func TestMatrix_ScaleColumns(t *testing.T) {
	scale := []float64{2, -1, 0.5}
	for name, m := range implementations() {
		t.Run(name, func(t *testing.T) {
			scaled := m.ScaleColumns(scale)

			assert.Equal(t, []float64{2, 0, 1}, scaled.SumRows([]int{0}))
			assert.Equal(t, []float64{0, -3, 0}, scaled.SumRows([]int{1}))
			assert.Equal(t, []float64{8, 0, 0.5}, scaled.SumRows([]int{2}))

			// the receiver is left untouched
			assert.Equal(t, []float64{1, 0, 2}, m.SumRows([]int{0}))
		})
	}
}

func TestMatrix_MulVec(t *testing.T) {
	for name, m := range implementations() {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, []float64{7, 3, 7}, m.MulVec([]float64{1, 1, 3}))
			assert.Equal(t, []float64{5, 3, 3}, m.TMulVec([]float64{1, 1, 1}))
		})
	}
}

func TestMatrix_DoRowNonZero(t *testing.T) {
	for name, m := range implementations() {
		t.Run(name, func(t *testing.T) {
			var cols []int
			var vals []float64
			m.DoRowNonZero(2, func(j int, v float64) {
				cols = append(cols, j)
				vals = append(vals, v)
			})
			require.Len(t, cols, 2)
			assert.Equal(t, []int{0, 2}, cols)
			assert.Equal(t, []float64{4, 1}, vals)
		})
	}
}

func TestMatrix_ScaleColumnsLengthMismatch(t *testing.T) {
	for name, m := range implementations() {
		t.Run(name, func(t *testing.T) {
			assert.Panics(t, func() { m.ScaleColumns([]float64{1}) })
		})
	}
}
