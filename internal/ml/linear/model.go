// Package linear holds the linear-classifier capability shared by every
// estimator in this module, plus the two base learners the text pipeline
// can select: a squared-hinge linear SVM and an L2 logistic regression.
//
// Optimization is delegated to gonum's L-BFGS implementation; this package
// only supplies the objectives and their gradients.
package linear

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/egmaziero/ktrain/internal/ml/matrix"
)

var (
	// ErrNotFitted is returned when a model is used before Fit.
	ErrNotFitted = errors.New("linear: model is not fitted")
	// ErrTooFewClasses is returned when the training labels hold a single class.
	ErrTooFewClasses = errors.New("linear: at least two classes are required")
)

// Model is a fitted linear classifier. A binary model holds one coefficient
// row whose positive side predicts Classes[1]; a multiclass model holds one
// one-vs-rest row per entry in Classes.
type Model struct {
	Classes   []int
	Coef      [][]float64
	Intercept []float64
}

// IsFitted reports whether the model holds coefficients.
func (m *Model) IsFitted() bool {
	return m != nil && len(m.Coef) > 0 && len(m.Classes) >= 2
}

// NumFeatures returns the coefficient row length.
func (m *Model) NumFeatures() int {
	if !m.IsFitted() {
		return 0
	}
	return len(m.Coef[0])
}

// FlatCoef returns the coefficient rows concatenated in class order.
func (m *Model) FlatCoef() []float64 {
	out := make([]float64, 0, len(m.Coef)*m.NumFeatures())
	for _, row := range m.Coef {
		out = append(out, row...)
	}
	return out
}

// DecisionFunction returns one score per coefficient row for every sample.
func (m *Model) DecisionFunction(X matrix.Matrix) ([][]float64, error) {
	if !m.IsFitted() {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != m.NumFeatures() {
		return nil, fmt.Errorf("linear: X has %d features, model expects %d", c, m.NumFeatures())
	}

	scores := make([][]float64, r)
	for i := range scores {
		scores[i] = make([]float64, len(m.Coef))
	}
	for k, w := range m.Coef {
		col := X.MulVec(w)
		for i, v := range col {
			scores[i][k] = v + m.Intercept[k]
		}
	}
	return scores, nil
}

// Predict returns the predicted class label for every sample.
func (m *Model) Predict(X matrix.Matrix) ([]int, error) {
	scores, err := m.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	out := make([]int, len(scores))
	for i, s := range scores {
		if len(s) == 1 {
			if s[0] > 0 {
				out[i] = m.Classes[1]
			} else {
				out[i] = m.Classes[0]
			}
			continue
		}
		best := 0
		for k := 1; k < len(s); k++ {
			if s[k] > s[best] {
				best = k
			}
		}
		out[i] = m.Classes[best]
	}
	return out, nil
}

// PredictProba returns per-class probability estimates. Decision scores are
// squashed with a sigmoid; multiclass rows are then normalized to sum to 1.
func (m *Model) PredictProba(X matrix.Matrix) ([][]float64, error) {
	scores, err := m.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(scores))
	for i, s := range scores {
		if len(s) == 1 {
			p := Sigmoid(s[0])
			out[i] = []float64{1 - p, p}
			continue
		}
		row := make([]float64, len(s))
		var total float64
		for k, v := range s {
			row[k] = Sigmoid(v)
			total += row[k]
		}
		for k := range row {
			row[k] /= total
		}
		out[i] = row
	}
	return out, nil
}

// Score returns the mean accuracy on the given samples.
func (m *Model) Score(X matrix.Matrix, y []int) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return Accuracy(pred, y)
}

// Accuracy returns the fraction of positions where pred and truth agree.
func Accuracy(pred, truth []int) (float64, error) {
	if len(pred) != len(truth) {
		return 0, fmt.Errorf("linear: %d predictions for %d labels", len(pred), len(truth))
	}
	if len(pred) == 0 {
		return 0, errors.New("linear: no samples to score")
	}
	hits := 0
	for i := range pred {
		if pred[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(pred)), nil
}

// UniqueSorted returns the distinct labels of y in ascending order.
func UniqueSorted(y []int) []int {
	seen := make(map[int]struct{}, 8)
	out := make([]int, 0, 8)
	for _, v := range y {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Sigmoid is a numerically stable logistic function.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}

func checkXY(X matrix.Matrix, y []int) error {
	r, _ := X.Dims()
	if r != len(y) {
		return fmt.Errorf("linear: X has %d rows but y has %d labels", r, len(y))
	}
	if r == 0 {
		return errors.New("linear: no training samples")
	}
	return nil
}
