package linear

import (
	"github.com/egmaziero/ktrain/internal/ml/matrix"
)

// Default hyperparameters for LinearSVC.
const (
	DefaultSVCMaxIter = 1000
	DefaultTolerance  = 1e-6
)

// LinearSVC is an L2-regularized linear support-vector classifier trained
// on the squared hinge loss.
type LinearSVC struct {
	C                float64
	FitIntercept     bool
	InterceptScaling float64
	MaxIter          int
	Tol              float64

	converged bool
}

// NewLinearSVC returns a LinearSVC with C=1, an intercept, and default
// iteration bounds.
func NewLinearSVC() *LinearSVC {
	return &LinearSVC{
		C:                1,
		FitIntercept:     true,
		InterceptScaling: 1,
		MaxIter:          DefaultSVCMaxIter,
		Tol:              DefaultTolerance,
	}
}

// Converged reports whether the last fit stopped before MaxIter.
func (s *LinearSVC) Converged() bool {
	return s.converged
}

// FitBinary trains one binary problem where positive marks the +1 samples.
// The returned intercept is zero when FitIntercept is false.
func (s *LinearSVC) FitBinary(X matrix.Matrix, positive []bool) (BinaryFit, error) {
	scaling := s.InterceptScaling
	if scaling == 0 {
		scaling = 1
	}
	fit, err := solveBinary(X, signedTarget(positive), squaredHinge{}, s.C, s.FitIntercept, scaling, s.maxIter(), s.tol())
	if err != nil {
		return BinaryFit{}, err
	}
	s.converged = fit.Converged
	return fit, nil
}

// Fit trains a binary or one-vs-rest multiclass model.
func (s *LinearSVC) Fit(X matrix.Matrix, y []int) (*Model, error) {
	if err := checkXY(X, y); err != nil {
		return nil, err
	}
	model, converged, err := oneVsRest(y, func(positive []bool) (BinaryFit, error) {
		return s.FitBinary(X, positive)
	})
	if err != nil {
		return nil, err
	}
	s.converged = converged
	return model, nil
}

func (s *LinearSVC) maxIter() int {
	if s.MaxIter <= 0 {
		return DefaultSVCMaxIter
	}
	return s.MaxIter
}

func (s *LinearSVC) tol() float64 {
	if s.Tol <= 0 {
		return DefaultTolerance
	}
	return s.Tol
}
