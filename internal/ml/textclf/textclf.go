// Package textclf wraps a count vectorizer and a linear estimator into a
// text classifier that picks its tokenizer from the detected language.
package textclf

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/egmaziero/ktrain/internal/ml/lang"
	"github.com/egmaziero/ktrain/internal/ml/linear"
	"github.com/egmaziero/ktrain/internal/ml/matrix"
	"github.com/egmaziero/ktrain/internal/ml/nbsvm"
	"github.com/egmaziero/ktrain/internal/ml/vectorize"
)

// Kind selects the estimator behind the vectorizer.
type Kind string

const (
	KindNBSVM  Kind = "nbsvm"
	KindLogReg Kind = "logreg"
)

// Pipeline hyperparameters.
const (
	NgramMin = 1
	NgramMax = 3

	NBSVMAlpha = 0.75
	NBSVMC     = 0.01
	NBSVMBeta  = 0.25

	LogRegC = 0.1
)

var (
	ErrNotFitted       = errors.New("textclf: model is not fitted; call Fit or Load")
	ErrUnsupportedKind = errors.New("textclf: unsupported classifier kind")
	ErrEmptyInput      = errors.New("textclf: no texts given")
	ErrLengthMismatch  = errors.New("textclf: texts and labels differ in length")
)

// ParseKind validates a kind name. An empty name selects KindNBSVM.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindNBSVM:
		return KindNBSVM, nil
	case KindLogReg:
		return KindLogReg, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// Pipeline is the fitted state written by Save.
type Pipeline struct {
	Kind       Kind
	Language   string
	Vectorizer *vectorize.CountVectorizer
	Model      *linear.Model
	Converged  bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for language and fit diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSegmenter replaces the Chinese word segmenter.
func WithSegmenter(s lang.Segmenter) Option {
	return func(c *Classifier) {
		if s != nil {
			c.seg = s
		}
	}
}

// Classifier is a language-aware n-gram text classifier. It is not safe for
// concurrent use.
type Classifier struct {
	logger    *zap.Logger
	seg       lang.Segmenter
	pipeline  *Pipeline
	converged bool
}

// New returns an unfitted classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.seg == nil {
		c.seg = lang.NewGSESegmenter(c.logger)
	}
	return c
}

// IsFitted reports whether Fit or Load has succeeded.
func (c *Classifier) IsFitted() bool {
	return c.pipeline != nil && c.pipeline.Model.IsFitted()
}

// Kind returns the estimator kind of the fitted pipeline.
func (c *Classifier) Kind() Kind {
	if c.pipeline == nil {
		return ""
	}
	return c.pipeline.Kind
}

// Language returns the language detected on the training texts.
func (c *Classifier) Language() string {
	if c.pipeline == nil {
		return ""
	}
	return c.pipeline.Language
}

// NumFeatures returns the vocabulary size of the fitted pipeline.
func (c *Classifier) NumFeatures() int {
	if c.pipeline == nil {
		return 0
	}
	return c.pipeline.Vectorizer.VocabSize()
}

// Converged reports whether the last Fit reached the optimizer tolerance.
// After Load it reports the flag saved with the pipeline.
func (c *Classifier) Converged() bool {
	return c.converged
}

// Fit trains a new pipeline, replacing any previous one.
func (c *Classifier) Fit(texts []string, labels []int, kind Kind) error {
	if len(texts) == 0 {
		return ErrEmptyInput
	}
	if len(texts) != len(labels) {
		return fmt.Errorf("%w: %d texts, %d labels", ErrLengthMismatch, len(texts), len(labels))
	}
	kind, err := ParseKind(string(kind))
	if err != nil {
		return err
	}

	start := time.Now()
	code := lang.Detect(texts, c.logger)
	pattern := vectorize.WordPunctPattern
	if lang.IsChinese(code) {
		pattern = vectorize.WordPattern
		texts = lang.SplitChinese(texts, c.seg)
	}

	vect := vectorize.New(pattern, NgramMin, NgramMax, true)
	X, err := vect.FitTransform(texts)
	if err != nil {
		return fmt.Errorf("textclf: vectorize: %w", err)
	}

	var model *linear.Model
	switch kind {
	case KindNBSVM:
		est := nbsvm.New(nbsvm.Config{
			Alpha:   NBSVMAlpha,
			C:       NBSVMC,
			Beta:    NBSVMBeta,
			MaxIter: nbsvm.DefaultMaxIter,
		})
		if err := est.Fit(X, labels); err != nil {
			return fmt.Errorf("textclf: fit nbsvm: %w", err)
		}
		model = &est.Model
		c.converged = est.Converged()
	case KindLogReg:
		lr := linear.NewLogisticRegression()
		lr.C = LogRegC
		m, err := lr.Fit(X, labels)
		if err != nil {
			return fmt.Errorf("textclf: fit logreg: %w", err)
		}
		model = m
		c.converged = lr.Converged()
	}

	c.pipeline = &Pipeline{Kind: kind, Language: code, Vectorizer: vect, Model: model, Converged: c.converged}
	if !c.converged {
		c.logger.Warn("optimizer stopped before convergence", zap.String("kind", string(kind)))
	}
	c.logger.Info("classifier fitted",
		zap.String("kind", string(kind)),
		zap.String("language", code),
		zap.Int("documents", len(texts)),
		zap.Int("features", vect.VocabSize()),
		zap.Int("classes", len(model.Classes)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Predict returns one label per text.
func (c *Classifier) Predict(texts []string) ([]int, error) {
	X, err := c.transform(texts)
	if err != nil {
		return nil, err
	}
	return c.pipeline.Model.Predict(X)
}

// PredictOne classifies a single text.
func (c *Classifier) PredictOne(text string) (int, error) {
	pred, err := c.Predict([]string{text})
	if err != nil {
		return 0, err
	}
	return pred[0], nil
}

// PredictProba returns per-class probabilities, columns in class order.
func (c *Classifier) PredictProba(texts []string) ([][]float64, error) {
	X, err := c.transform(texts)
	if err != nil {
		return nil, err
	}
	return c.pipeline.Model.PredictProba(X)
}

// Classes returns the labels the model was fitted on, in column order.
func (c *Classifier) Classes() []int {
	if c.pipeline == nil || c.pipeline.Model == nil {
		return nil
	}
	return append([]int(nil), c.pipeline.Model.Classes...)
}

// Evaluate returns the share of texts whose prediction equals the label.
func (c *Classifier) Evaluate(texts []string, labels []int) (float64, error) {
	if len(texts) != len(labels) {
		return 0, fmt.Errorf("%w: %d texts, %d labels", ErrLengthMismatch, len(texts), len(labels))
	}
	pred, err := c.Predict(texts)
	if err != nil {
		return 0, err
	}
	return linear.Accuracy(pred, labels)
}

func (c *Classifier) transform(texts []string) (*matrix.CSR, error) {
	if !c.IsFitted() {
		return nil, ErrNotFitted
	}
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if lang.IsChinese(lang.Detect(texts, c.logger)) {
		texts = lang.SplitChinese(texts, c.seg)
	}
	return c.pipeline.Vectorizer.Transform(texts)
}

// Save writes the fitted pipeline as gob.
func (c *Classifier) Save(w io.Writer) error {
	if !c.IsFitted() {
		return ErrNotFitted
	}
	if err := gob.NewEncoder(w).Encode(c.pipeline); err != nil {
		return fmt.Errorf("textclf: encode: %w", err)
	}
	return nil
}

// Load replaces the pipeline with one written by Save.
func (c *Classifier) Load(r io.Reader) error {
	var p Pipeline
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return fmt.Errorf("textclf: decode: %w", err)
	}
	if p.Vectorizer == nil || !p.Model.IsFitted() {
		return fmt.Errorf("textclf: decode: %w", ErrNotFitted)
	}
	if _, err := ParseKind(string(p.Kind)); err != nil {
		return err
	}
	c.pipeline = &p
	c.converged = p.Converged
	return nil
}

// SaveFile writes the pipeline to filename.
func (c *Classifier) SaveFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("textclf: create %s: %w", filename, err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a pipeline from filename.
func (c *Classifier) LoadFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("textclf: open %s: %w", filename, err)
	}
	defer f.Close()
	return c.Load(f)
}
