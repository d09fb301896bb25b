package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/egmaziero/ktrain/internal/ml/matrix"
)

// BinaryFit is the result of one binary optimization.
type BinaryFit struct {
	Coef      []float64
	Intercept float64
	Converged bool
}

// loss is a per-sample margin loss. value returns the loss at margin m;
// slope returns -d(loss)/dm, the weight each sample contributes to the
// gradient along y_i·x_i.
type loss interface {
	value(m float64) float64
	slope(m float64) float64
}

type squaredHinge struct{}

func (squaredHinge) value(m float64) float64 {
	if m >= 1 {
		return 0
	}
	d := 1 - m
	return d * d
}

func (squaredHinge) slope(m float64) float64 {
	if m >= 1 {
		return 0
	}
	return 2 * (1 - m)
}

type logistic struct{}

func (logistic) value(m float64) float64 {
	if m > 0 {
		return math.Log1p(math.Exp(-m))
	}
	return -m + math.Log1p(math.Exp(m))
}

func (logistic) slope(m float64) float64 {
	return Sigmoid(-m)
}

// solveBinary minimizes 0.5·‖w‖² + C·Σ loss(y_i·(x_i·w + b)) with L-BFGS.
// When fitIntercept is set, b is learned as an extra feature of constant
// value scaling and is regularized along with w.
func solveBinary(X matrix.Matrix, target []float64, l loss, C float64, fitIntercept bool, scaling float64, maxIter int, tol float64) (BinaryFit, error) {
	_, n := X.Dims()
	dim := n
	if fitIntercept {
		dim++
	}

	margins := func(w []float64) []float64 {
		s := X.MulVec(w[:n])
		for i := range s {
			if fitIntercept {
				s[i] += w[n] * scaling
			}
			s[i] *= target[i]
		}
		return s
	}

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			var f float64
			for _, v := range w {
				f += v * v
			}
			f *= 0.5
			for _, m := range margins(w) {
				f += C * l.value(m)
			}
			return f
		},
		Grad: func(grad, w []float64) {
			m := margins(w)
			v := make([]float64, len(m))
			var bias float64
			for i := range m {
				v[i] = target[i] * l.slope(m[i])
				bias += v[i]
			}
			xv := X.TMulVec(v)
			for j := 0; j < n; j++ {
				grad[j] = w[j] - C*xv[j]
			}
			if fitIntercept {
				grad[n] = w[n] - C*scaling*bias
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: tol,
	}
	result, err := optimize.Minimize(problem, make([]float64, dim), settings, &optimize.LBFGS{})
	if result == nil {
		return BinaryFit{}, fmt.Errorf("linear: optimize: %w", err)
	}

	fit := BinaryFit{
		Coef:      append([]float64(nil), result.X[:n]...),
		Converged: err == nil && converged(result.Status),
	}
	if fitIntercept {
		fit.Intercept = result.X[n] * scaling
	}
	return fit, nil
}

// converged reports whether the optimizer stopped on a convergence test
// rather than a budget such as MajorIterations.
func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.FunctionThreshold:
		return true
	}
	return false
}

// signedTarget maps membership to +1/-1.
func signedTarget(positive []bool) []float64 {
	t := make([]float64, len(positive))
	for i, p := range positive {
		if p {
			t[i] = 1
		} else {
			t[i] = -1
		}
	}
	return t
}

// oneVsRest fits one binary problem per class, or a single problem whose
// positive side is classes[1] when there are exactly two classes.
func oneVsRest(y []int, fit func(positive []bool) (BinaryFit, error)) (*Model, bool, error) {
	classes := UniqueSorted(y)
	if len(classes) < 2 {
		return nil, false, ErrTooFewClasses
	}

	targets := classes
	if len(classes) == 2 {
		targets = classes[1:]
	}

	model := &Model{Classes: classes}
	converged := true
	for _, class := range targets {
		positive := make([]bool, len(y))
		for i, v := range y {
			positive[i] = v == class
		}
		bf, err := fit(positive)
		if err != nil {
			return nil, false, err
		}
		model.Coef = append(model.Coef, bf.Coef)
		model.Intercept = append(model.Intercept, bf.Intercept)
		converged = converged && bf.Converged
	}
	return model, converged, nil
}
