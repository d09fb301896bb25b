// Package zeroshot scores a document against arbitrary topics by asking a
// natural language inference model whether the document entails the
// hypothesis "This text is about <topic>.".
package zeroshot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultModel is the NLI model used when none is configured.
	DefaultModel = "facebook/bart-large-mnli"
	// DefaultTemplate is the hypothesis template; {} is replaced by the topic.
	DefaultTemplate = "This text is about {}."
	// DefaultBatchSize is the number of pairs sent per backend call.
	DefaultBatchSize = 8

	// manyTopics is the topic count above which a default batch size is
	// worth a tip.
	manyTopics = 100

	defaultEntailment    = 2
	defaultContradiction = 0
)

var (
	ErrNotNLIModel      = errors.New("zeroshot: model must be an MNLI or XNLI model")
	ErrNoBackend        = errors.New("zeroshot: no inference backend")
	ErrNoTopics         = errors.New("zeroshot: topics must be a non-empty list of strings")
	ErrInvalidBatchSize = errors.New("zeroshot: batch size must be >= 1")
	ErrBadLogits        = errors.New("zeroshot: backend returned malformed logits")
)

// Pair is one premise/hypothesis input to the NLI model.
type Pair struct {
	Premise    string `json:"premise"`
	Hypothesis string `json:"hypothesis"`
}

// Logits holds one row of class logits per pair. Labels names the columns,
// for example contradiction, neutral, entailment. It may be empty.
type Logits struct {
	Values [][]float64
	Labels []string
}

// Backend runs NLI inference.
type Backend interface {
	Load(ctx context.Context, model string) error
	Logits(ctx context.Context, model string, pairs []Pair) (*Logits, error)
}

// TopicScore is the entailment probability for one topic. Topic is empty
// unless labels were requested.
type TopicScore struct {
	Topic string  `json:"topic,omitempty"`
	Score float64 `json:"score"`
}

// PredictOptions controls one Predict call. A zero BatchSize means
// DefaultBatchSize.
type PredictOptions struct {
	BatchSize     int
	IncludeLabels bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTemplate overrides the hypothesis template.
func WithTemplate(tmpl string) Option {
	return func(c *Classifier) {
		if tmpl != "" {
			c.template = tmpl
		}
	}
}

// Classifier is a zero-shot topic classifier. Its configuration is fixed at
// construction, so it may be shared between goroutines when the backend
// allows it.
type Classifier struct {
	model    string
	backend  Backend
	template string
	logger   *zap.Logger
}

// IsNLIModel reports whether a model name looks like an MNLI or XNLI model.
func IsNLIModel(name string) bool {
	return strings.Contains(name, "mnli") || strings.Contains(name, "xnli")
}

// New validates the model name and backend, then asks the backend to load
// the model.
func New(ctx context.Context, model string, backend Backend, opts ...Option) (*Classifier, error) {
	if !IsNLIModel(model) {
		return nil, fmt.Errorf("%w: %q", ErrNotNLIModel, model)
	}
	if backend == nil {
		return nil, ErrNoBackend
	}

	c := &Classifier{
		model:    model,
		backend:  backend,
		template: DefaultTemplate,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := backend.Load(ctx, model); err != nil {
		return nil, fmt.Errorf("zeroshot: load %s: %w", model, err)
	}
	return c, nil
}

// Model returns the NLI model name.
func (c *Classifier) Model() string {
	return c.model
}

// Template returns the hypothesis template.
func (c *Classifier) Template() string {
	return c.template
}

// Hypothesis renders the template for a topic.
func (c *Classifier) Hypothesis(topic string) string {
	if strings.Contains(c.template, "{}") {
		return strings.Replace(c.template, "{}", topic, 1)
	}
	return c.template + " " + topic
}

// Predict returns the probability that doc is about each topic, in topic
// order.
func (c *Classifier) Predict(ctx context.Context, doc string, topics []string, opts PredictOptions) ([]TopicScore, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	batch := opts.BatchSize
	if batch == 0 {
		batch = DefaultBatchSize
	}
	if batch < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, opts.BatchSize)
	}
	if len(topics) >= manyTopics && batch == DefaultBatchSize {
		c.logger.Warn("many topics with the default batch size, increase batch_size to speed up predictions",
			zap.Int("topics", len(topics)),
			zap.Int("batch_size", batch),
		)
	}
	if batch > len(topics) {
		batch = len(topics)
	}

	out := make([]TopicScore, 0, len(topics))
	numChunks := (len(topics) + batch - 1) / batch
	for _, chunk := range Chunks(topics, numChunks) {
		pairs := make([]Pair, len(chunk))
		for i, topic := range chunk {
			pairs[i] = Pair{Premise: doc, Hypothesis: c.Hypothesis(topic)}
		}

		logits, err := c.backend.Logits(ctx, c.model, pairs)
		if err != nil {
			return nil, fmt.Errorf("zeroshot: inference: %w", err)
		}
		probs, err := EntailmentProbs(logits, len(pairs))
		if err != nil {
			return nil, err
		}
		for i, p := range probs {
			score := TopicScore{Score: p}
			if opts.IncludeLabels {
				score.Topic = chunk[i]
			}
			out = append(out, score)
		}
	}
	return out, nil
}

// Scores is Predict without labels.
func (c *Classifier) Scores(ctx context.Context, doc string, topics []string, batchSize int) ([]float64, error) {
	res, err := c.Predict(ctx, doc, topics, PredictOptions{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(res))
	for i, r := range res {
		out[i] = r.Score
	}
	return out, nil
}

// Chunks splits items into n contiguous chunks whose sizes differ by at
// most one, larger chunks first.
func Chunks(items []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}
	k, m := len(items)/max(n, 1), len(items)%max(n, 1)
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		lo := i*k + min(i, m)
		hi := (i+1)*k + min(i+1, m)
		out = append(out, items[lo:hi])
	}
	return out
}

// EntailmentProbs applies a softmax over the contradiction and entailment
// logits of every row and returns the entailment probability.
func EntailmentProbs(l *Logits, want int) ([]float64, error) {
	if l == nil || len(l.Values) != want {
		got := 0
		if l != nil {
			got = len(l.Values)
		}
		return nil, fmt.Errorf("%w: %d rows for %d pairs", ErrBadLogits, got, want)
	}
	ent, con, err := labelIndices(l.Labels)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(l.Values))
	for i, row := range l.Values {
		if ent >= len(row) || con >= len(row) {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrBadLogits, i, len(row))
		}
		out[i] = softmax2(row[con], row[ent])
	}
	return out, nil
}

// labelIndices finds the entailment and contradiction columns by name.
// Without names the MNLI order (contradiction, neutral, entailment) is
// assumed. Named columns must include both labels exactly once.
func labelIndices(labels []string) (entailment, contradiction int, err error) {
	if len(labels) == 0 {
		return defaultEntailment, defaultContradiction, nil
	}
	entailment, contradiction = -1, -1
	for i, l := range labels {
		switch strings.ToLower(strings.TrimSpace(l)) {
		case "entailment":
			if entailment >= 0 {
				return 0, 0, fmt.Errorf("%w: duplicate entailment label", ErrBadLogits)
			}
			entailment = i
		case "contradiction":
			if contradiction >= 0 {
				return 0, 0, fmt.Errorf("%w: duplicate contradiction label", ErrBadLogits)
			}
			contradiction = i
		}
	}
	if entailment < 0 || contradiction < 0 {
		return 0, 0, fmt.Errorf("%w: labels %v lack entailment or contradiction", ErrBadLogits, labels)
	}
	return entailment, contradiction, nil
}

// softmax2 returns exp(b) / (exp(a) + exp(b)).
func softmax2(a, b float64) float64 {
	m := math.Max(a, b)
	ea, eb := math.Exp(a-m), math.Exp(b-m)
	return eb / (ea + eb)
}
