package zeroshot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Load(ctx context.Context, model string) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockBackend) Logits(ctx context.Context, model string, pairs []Pair) (*Logits, error) {
	args := m.Called(ctx, model, pairs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Logits), args.Error(1)
}

// fakeBackend entails hypotheses that appear in its topic set.
type fakeBackend struct {
	entailed map[string]bool
	batches  []int
}

func (f *fakeBackend) Load(context.Context, string) error { return nil }

func (f *fakeBackend) Logits(_ context.Context, _ string, pairs []Pair) (*Logits, error) {
	f.batches = append(f.batches, len(pairs))
	out := &Logits{Labels: []string{"contradiction", "neutral", "entailment"}}
	for _, p := range pairs {
		if f.entailed[p.Hypothesis] {
			out.Values = append(out.Values, []float64{-2, 0, 3})
		} else {
			out.Values = append(out.Values, []float64{3, 0, -2})
		}
	}
	return out, nil
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non NLI model before loading", func(t *testing.T) {
		backend := new(MockBackend)
		_, err := New(ctx, "bert-base-uncased", backend)
		assert.ErrorIs(t, err, ErrNotNLIModel)
		backend.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("requires backend", func(t *testing.T) {
		_, err := New(ctx, DefaultModel, nil)
		assert.ErrorIs(t, err, ErrNoBackend)
	})

	t.Run("load failure", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("Load", ctx, "joeddav/xlm-roberta-large-xnli").Return(errors.New("no such model"))
		_, err := New(ctx, "joeddav/xlm-roberta-large-xnli", backend)
		assert.ErrorContains(t, err, "no such model")
		backend.AssertExpectations(t)
	})

	t.Run("success", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("Load", ctx, DefaultModel).Return(nil)
		c, err := New(ctx, DefaultModel, backend, WithTemplate("Topic: {}"))
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, c.Model())
		assert.Equal(t, "Topic: sports", c.Hypothesis("sports"))
	})
}

func TestPredict(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{entailed: map[string]bool{
		"This text is about politics.": true,
	}}
	c, err := New(ctx, DefaultModel, backend)
	require.NoError(t, err)

	topics := []string{"politics", "elections", "sports", "science"}
	doc := "The parliament voted on the new budget today."

	res, err := c.Predict(ctx, doc, topics, PredictOptions{IncludeLabels: true})
	require.NoError(t, err)
	require.Len(t, res, len(topics))
	for i, r := range res {
		assert.Equal(t, topics[i], r.Topic)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
	assert.Greater(t, res[0].Score, 0.99)
	assert.Less(t, res[2].Score, 0.01)
	assert.Equal(t, []int{4}, backend.batches)

	scores, err := c.Scores(ctx, doc, topics, 0)
	require.NoError(t, err)
	assert.Len(t, scores, len(topics))
	assert.InDelta(t, res[0].Score, scores[0], 1e-12)

	unlabeled, err := c.Predict(ctx, doc, topics, PredictOptions{})
	require.NoError(t, err)
	assert.Empty(t, unlabeled[0].Topic)
}

func TestPredict_Batching(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	c, err := New(ctx, DefaultModel, backend)
	require.NoError(t, err)

	topics := make([]string, 10)
	for i := range topics {
		topics[i] = fmt.Sprintf("topic %d", i)
	}
	res, err := c.Predict(ctx, "doc", topics, PredictOptions{BatchSize: 4})
	require.NoError(t, err)
	assert.Len(t, res, 10)
	assert.Equal(t, []int{4, 3, 3}, backend.batches)
}

func TestPredict_ManyTopicsTip(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := context.Background()
	c, err := New(ctx, DefaultModel, &fakeBackend{}, WithLogger(zap.New(core)))
	require.NoError(t, err)

	topics := make([]string, 100)
	for i := range topics {
		topics[i] = fmt.Sprintf("t%d", i)
	}
	_, err = c.Predict(ctx, "doc", topics, PredictOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())

	_, err = c.Predict(ctx, "doc", topics, PredictOptions{BatchSize: 32})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestPredict_Errors(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.On("Load", ctx, DefaultModel).Return(nil)
	c, err := New(ctx, DefaultModel, backend)
	require.NoError(t, err)

	_, err = c.Predict(ctx, "doc", nil, PredictOptions{})
	assert.ErrorIs(t, err, ErrNoTopics)

	_, err = c.Predict(ctx, "doc", []string{"a"}, PredictOptions{BatchSize: -1})
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	backend.On("Logits", ctx, DefaultModel, mock.Anything).Return(nil, errors.New("timeout")).Once()
	_, err = c.Predict(ctx, "doc", []string{"a"}, PredictOptions{})
	assert.ErrorContains(t, err, "timeout")

	backend.On("Logits", ctx, DefaultModel, mock.Anything).Return(&Logits{Values: [][]float64{{1, 2}}}, nil).Once()
	_, err = c.Predict(ctx, "doc", []string{"a"}, PredictOptions{})
	assert.ErrorIs(t, err, ErrBadLogits)
}

func TestChunks(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e"}, {"f", "g"}}, Chunks(items, 3))
	assert.Equal(t, [][]string{items}, Chunks(items, 1))
	assert.Len(t, Chunks(items, 20), 7)
}

func TestEntailmentProbs(t *testing.T) {
	t.Run("default column order", func(t *testing.T) {
		probs, err := EntailmentProbs(&Logits{Values: [][]float64{{0, 5, 0}, {1, 0, 0}}}, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, probs[0], 1e-12)
		assert.InDelta(t, 1/(1+2.718281828459045), probs[1], 1e-9)
	})

	t.Run("named columns", func(t *testing.T) {
		probs, err := EntailmentProbs(&Logits{
			Values: [][]float64{{2, 0, 0}},
			Labels: []string{"ENTAILMENT", "NEUTRAL", "CONTRADICTION"},
		}, 1)
		require.NoError(t, err)
		assert.Greater(t, probs[0], 0.8)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		_, err := EntailmentProbs(&Logits{Values: [][]float64{{0, 0, 0}}}, 2)
		assert.ErrorIs(t, err, ErrBadLogits)
	})

	t.Run("rejects incomplete or ambiguous label names", func(t *testing.T) {
		cases := map[string][]string{
			"missing contradiction": {"entailment", "neutral", "other"},
			"missing entailment":    {"contradiction", "neutral", "other"},
			"duplicate entailment":  {"entailment", "Entailment", "contradiction"},
			"unrelated names":       {"LABEL_0", "LABEL_1", "LABEL_2"},
		}
		for name, labels := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := EntailmentProbs(&Logits{Values: [][]float64{{0, 1, 2}}, Labels: labels}, 1)
				assert.ErrorIs(t, err, ErrBadLogits)
			})
		}
	})
}
