// Package nbsvm implements the Naive-Bayes-weighted linear SVM of Wang &
// Manning: features are rescaled by their Naive Bayes log-count ratios, a
// linear SVM is trained on the rescaled features, and the final weights
// interpolate between the pure log-count-ratio direction and the SVM one.
package nbsvm

import (
	"errors"
	"fmt"
	"math"

	"github.com/egmaziero/ktrain/internal/ml/linear"
	"github.com/egmaziero/ktrain/internal/ml/matrix"
)

// Default hyperparameters.
const (
	DefaultAlpha   = 1.0
	DefaultC       = 1.0
	DefaultBeta    = 0.25
	DefaultMaxIter = 10000
)

// ErrInvalidAlpha is returned when the smoothing parameter is not positive.
var ErrInvalidAlpha = errors.New("nbsvm: alpha must be > 0")

// Config holds the estimator hyperparameters.
type Config struct {
	// Alpha is the Laplace smoothing added to every feature count.
	Alpha float64
	// C is the inverse regularization strength of the SVM step.
	C float64
	// Beta interpolates between pure NB weighting (0) and SVM weighting (1).
	Beta float64
	// FitIntercept lets the SVM step learn its own bias.
	FitIntercept bool
	// MaxIter bounds the SVM optimizer.
	MaxIter int
}

// DefaultConfig returns alpha=1, C=1, beta=0.25 and no SVM intercept.
func DefaultConfig() Config {
	return Config{
		Alpha:   DefaultAlpha,
		C:       DefaultC,
		Beta:    DefaultBeta,
		MaxIter: DefaultMaxIter,
	}
}

// Estimator is an NBSVM classifier. The embedded linear.Model supplies
// Predict, DecisionFunction, PredictProba and Score once Fit has run.
type Estimator struct {
	linear.Model
	cfg       Config
	converged bool
}

// New returns an unfitted estimator.
func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Config returns the estimator hyperparameters.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Converged reports whether every SVM sub-fit of the last Fit converged.
func (e *Estimator) Converged() bool {
	return e.converged
}

// Fit trains the estimator on a non-negative count or presence matrix.
// With two classes a single binary model is fit whose positive side is the
// larger label; with more, one binary model per class is fit one-vs-rest
// and the rows are stacked in ascending class order.
func (e *Estimator) Fit(X matrix.Matrix, y []int) error {
	if e.cfg.Alpha <= 0 {
		return ErrInvalidAlpha
	}
	r, _ := X.Dims()
	if r != len(y) {
		return fmt.Errorf("nbsvm: X has %d rows but y has %d labels", r, len(y))
	}

	classes := linear.UniqueSorted(y)
	if len(classes) < 2 {
		return linear.ErrTooFewClasses
	}

	targets := classes
	if len(classes) == 2 {
		targets = classes[1:]
	}

	model := linear.Model{Classes: classes}
	converged := true
	for _, class := range targets {
		positive := make([]bool, len(y))
		for i, v := range y {
			positive[i] = v == class
		}
		coef, intercept, ok, err := e.fitBinary(X, positive)
		if err != nil {
			return fmt.Errorf("nbsvm: class %d: %w", class, err)
		}
		model.Coef = append(model.Coef, coef)
		model.Intercept = append(model.Intercept, intercept)
		converged = converged && ok
	}

	e.Model = model
	e.converged = converged
	return nil
}

func (e *Estimator) fitBinary(X matrix.Matrix, positive []bool) ([]float64, float64, bool, error) {
	var pos, neg []int
	for i, p := range positive {
		if p {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	r := LogCountRatio(X, pos, neg, e.cfg.Alpha)
	b := math.Log(float64(len(pos))) - math.Log(float64(len(neg)))

	svc := &linear.LinearSVC{
		C:                e.cfg.C,
		FitIntercept:     e.cfg.FitIntercept,
		InterceptScaling: 1,
		MaxIter:          e.cfg.MaxIter,
	}
	fit, err := svc.FitBinary(X.ScaleColumns(r), positive)
	if err != nil {
		return nil, 0, false, err
	}

	coef, intercept := Blend(r, b, fit.Coef, fit.Intercept, e.cfg.Beta)
	return coef, intercept, fit.Converged, nil
}

// LogCountRatio returns r = log(p/‖p‖₁) − log(q/‖q‖₁) where p and q are the
// alpha-smoothed feature totals over the pos and neg rows.
func LogCountRatio(X matrix.Matrix, pos, neg []int, alpha float64) []float64 {
	p := X.SumRows(pos)
	q := X.SumRows(neg)

	var pSum, qSum float64
	for j := range p {
		p[j] += alpha
		q[j] += alpha
		pSum += math.Abs(p[j])
		qSum += math.Abs(q[j])
	}

	r := make([]float64, len(p))
	for j := range r {
		r[j] = math.Log(p[j]/pSum) - math.Log(q[j]/qSum)
	}
	return r
}

// Blend interpolates the log-count-ratio direction r (bias b) with the SVM
// solution w (bias w0) trained on features scaled by r:
//
//	coef      = (1−β)·mean|w|·r + β·(r ⊙ w)
//	intercept = (1−β)·mean|w|·b + β·w0
func Blend(r []float64, b float64, w []float64, w0, beta float64) ([]float64, float64) {
	var meanMag float64
	for _, v := range w {
		meanMag += math.Abs(v)
	}
	if len(w) > 0 {
		meanMag /= float64(len(w))
	}

	coef := make([]float64, len(r))
	for j := range r {
		coef[j] = (1-beta)*meanMag*r[j] + beta*(r[j]*w[j])
	}
	intercept := (1-beta)*meanMag*b + beta*w0
	return coef, intercept
}
