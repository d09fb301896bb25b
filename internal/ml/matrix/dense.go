package matrix

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dense is a Matrix backed by a gonum dense matrix.
type Dense struct {
	m *mat.Dense
}

// NewDense creates a rows x cols dense matrix from row-major data.
func NewDense(rows, cols int, data []float64) *Dense {
	return &Dense{m: mat.NewDense(rows, cols, data)}
}

// DenseFromRows creates a dense matrix from a slice of equal-length rows.
func DenseFromRows(rows [][]float64) *Dense {
	if len(rows) == 0 {
		return &Dense{m: &mat.Dense{}}
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		checkLen("DenseFromRows", len(r), cols)
		data = append(data, r...)
	}
	return NewDense(len(rows), cols, data)
}

// Raw returns the underlying gonum matrix.
func (d *Dense) Raw() *mat.Dense {
	return d.m
}

// Dims returns the number of rows and columns.
func (d *Dense) Dims() (int, int) {
	if d.m.IsEmpty() {
		return 0, 0
	}
	return d.m.Dims()
}

// SumRows returns the column-wise sum of the given rows.
func (d *Dense) SumRows(rows []int) []float64 {
	_, c := d.Dims()
	sum := make([]float64, c)
	for _, i := range rows {
		floats.Add(sum, d.m.RawRowView(i))
	}
	return sum
}

// ScaleColumns returns X·diag(s) computed as a product with a diagonal matrix.
func (d *Dense) ScaleColumns(s []float64) Matrix {
	_, c := d.Dims()
	checkLen("ScaleColumns", len(s), c)
	diag := mat.NewDiagDense(c, append([]float64(nil), s...))
	var out mat.Dense
	out.Mul(d.m, diag)
	return &Dense{m: &out}
}

// MulVec returns X·w.
func (d *Dense) MulVec(w []float64) []float64 {
	_, c := d.Dims()
	checkLen("MulVec", len(w), c)
	var out mat.VecDense
	out.MulVec(d.m, mat.NewVecDense(len(w), w))
	return out.RawVector().Data
}

// TMulVec returns Xᵀ·v.
func (d *Dense) TMulVec(v []float64) []float64 {
	r, _ := d.Dims()
	checkLen("TMulVec", len(v), r)
	var out mat.VecDense
	out.MulVec(d.m.T(), mat.NewVecDense(len(v), v))
	return out.RawVector().Data
}

// DoRowNonZero calls fn for every non-zero entry of row i.
func (d *Dense) DoRowNonZero(i int, fn func(j int, v float64)) {
	for j, v := range d.m.RawRowView(i) {
		if v != 0 {
			fn(j, v)
		}
	}
}
