package linear

import (
	"github.com/egmaziero/ktrain/internal/ml/matrix"
)

// DefaultLogRegMaxIter bounds L-BFGS iterations for LogisticRegression.
const DefaultLogRegMaxIter = 100

// LogisticRegression is an L2-regularized logistic regression classifier.
// Multiclass problems are decomposed one-vs-rest.
type LogisticRegression struct {
	C                float64
	FitIntercept     bool
	InterceptScaling float64
	MaxIter          int
	Tol              float64

	converged bool
}

// NewLogisticRegression returns a LogisticRegression with C=1 and an intercept.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:                1,
		FitIntercept:     true,
		InterceptScaling: 1,
		MaxIter:          DefaultLogRegMaxIter,
		Tol:              DefaultTolerance,
	}
}

// Converged reports whether every sub-problem of the last fit converged.
func (lr *LogisticRegression) Converged() bool {
	return lr.converged
}

// Fit trains a binary or one-vs-rest multiclass model.
func (lr *LogisticRegression) Fit(X matrix.Matrix, y []int) (*Model, error) {
	if err := checkXY(X, y); err != nil {
		return nil, err
	}

	maxIter := lr.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultLogRegMaxIter
	}
	tol := lr.Tol
	if tol <= 0 {
		tol = DefaultTolerance
	}
	scaling := lr.InterceptScaling
	if scaling == 0 {
		scaling = 1
	}

	model, converged, err := oneVsRest(y, func(positive []bool) (BinaryFit, error) {
		return solveBinary(X, signedTarget(positive), logistic{}, lr.C, lr.FitIntercept, scaling, maxIter, tol)
	})
	if err != nil {
		return nil, err
	}
	lr.converged = converged
	return model, nil
}
