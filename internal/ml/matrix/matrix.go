// Package matrix provides the small capability set the linear estimators
// need from a feature matrix: row sums over a subset of documents, column
// scaling by a diagonal, and matrix-vector products.
//
// Two implementations are provided. CSR stores bag-of-ngrams counts in
// compressed sparse row form; Dense wraps a gonum mat.Dense. Algorithms are
// written once against Matrix and work over either representation.
package matrix

import "fmt"

// Matrix is a read-only documents x features matrix.
type Matrix interface {
	// Dims returns the number of rows and columns.
	Dims() (r, c int)

	// SumRows returns the column-wise sum of the given rows.
	SumRows(rows []int) []float64

	// ScaleColumns returns X·diag(d): every column j multiplied by d[j].
	ScaleColumns(d []float64) Matrix

	// MulVec returns X·w.
	MulVec(w []float64) []float64

	// TMulVec returns Xᵀ·v.
	TMulVec(v []float64) []float64

	// DoRowNonZero calls fn for every non-zero entry of row i in
	// ascending column order.
	DoRowNonZero(i int, fn func(j int, v float64))
}

func checkLen(op string, got, want int) {
	if got != want {
		panic(fmt.Sprintf("matrix: %s: length mismatch: got %d want %d", op, got, want))
	}
}
