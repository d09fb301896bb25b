package textclf

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egmaziero/ktrain/internal/ml/lang"
)

var (
	positiveReviews = []string{
		"a wonderful and delightful film, I loved every minute",
		"great acting and a wonderful story, truly delightful",
		"I loved it, great fun and brilliant performances",
		"brilliant direction, wonderful cast, loved the ending",
		"delightful, charming and great, highly recommended",
		"one of the best films this year, brilliant and moving",
	}
	negativeReviews = []string{
		"a terrible and boring film, I hated every minute",
		"awful acting and a boring story, truly terrible",
		"I hated it, dull plot and awful performances",
		"terrible direction, boring cast, hated the ending",
		"boring, tedious and awful, not recommended at all",
		"one of the worst films this year, dull and painful",
	}
)

func reviews() ([]string, []int) {
	var texts []string
	var labels []int
	for i := range positiveReviews {
		texts = append(texts, positiveReviews[i], negativeReviews[i])
		labels = append(labels, 1, 0)
	}
	return texts, labels
}

// splitRunes counts calls and cuts every rune.
type splitRunes struct {
	calls int
}

func (s *splitRunes) Cut(text string) []string {
	s.calls++
	return lang.RuneSegmenter{}.Cut(text)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindNBSVM, k)

	k, err = ParseKind("logreg")
	require.NoError(t, err)
	assert.Equal(t, KindLogReg, k)

	_, err = ParseKind("bert")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestClassifier_NotFitted(t *testing.T) {
	c := New()

	_, err := c.Predict([]string{"hello"})
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = c.PredictOne("hello")
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = c.PredictProba([]string{"hello"})
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.ErrorIs(t, c.Save(&bytes.Buffer{}), ErrNotFitted)
	assert.False(t, c.IsFitted())
}

func TestClassifier_FitValidation(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.Fit(nil, nil, KindNBSVM), ErrEmptyInput)
	assert.ErrorIs(t, c.Fit([]string{"a"}, []int{0, 1}, KindNBSVM), ErrLengthMismatch)
	assert.ErrorIs(t, c.Fit([]string{"a", "b"}, []int{0, 1}, Kind("svm")), ErrUnsupportedKind)
}

func TestClassifier_FitPredict(t *testing.T) {
	texts, labels := reviews()

	for _, kind := range []Kind{KindNBSVM, KindLogReg} {
		t.Run(string(kind), func(t *testing.T) {
			c := New()
			require.NoError(t, c.Fit(texts, labels, kind))
			assert.True(t, c.IsFitted())
			assert.Equal(t, kind, c.Kind())
			assert.Equal(t, []int{0, 1}, c.Classes())
			assert.Greater(t, c.NumFeatures(), 0)

			acc, err := c.Evaluate(texts, labels)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, acc, 0.9)

			pred, err := c.Predict([]string{"wonderful and brilliant, I loved it", "boring and awful, I hated it", "great"})
			require.NoError(t, err)
			assert.Len(t, pred, 3)

			one, err := c.PredictOne("wonderful and brilliant, I loved it")
			require.NoError(t, err)
			assert.Equal(t, pred[0], one)

			proba, err := c.PredictProba([]string{"delightful", "terrible"})
			require.NoError(t, err)
			require.Len(t, proba, 2)
			for _, row := range proba {
				require.Len(t, row, 2)
				assert.InDelta(t, 1.0, row[0]+row[1], 1e-9)
			}
		})
	}
}

func TestClassifier_Multiclass(t *testing.T) {
	texts := []string{
		"the striker scored a goal in the football match",
		"the goalkeeper saved a penalty in the football final",
		"the team won the football league after the match",
		"the central bank raised interest rates again",
		"stock markets fell as the bank reported losses",
		"investors sold shares after the interest rate decision",
		"the new phone has a faster processor and better camera",
		"the laptop ships with more memory and a faster processor",
		"software update improves the phone camera and battery",
	}
	labels := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}

	c := New()
	require.NoError(t, c.Fit(texts, labels, KindNBSVM))
	assert.Equal(t, []int{0, 1, 2}, c.Classes())

	acc, err := c.Evaluate(texts, labels)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.8)

	proba, err := c.PredictProba([]string{"a football match", "interest rates", "a faster processor"})
	require.NoError(t, err)
	for _, row := range proba {
		require.Len(t, row, 3)
		sum := 0.0
		for _, p := range row {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestClassifier_SaveLoad(t *testing.T) {
	texts, labels := reviews()
	c := New()
	require.NoError(t, c.Fit(texts, labels, KindNBSVM))

	docs := []string{"loved it, great and wonderful", "hated it, boring and dull", "a film"}
	want, err := c.Predict(docs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New()
	require.NoError(t, restored.Load(&buf))
	got, err := restored.Predict(docs)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, c.Language(), restored.Language())
	assert.Equal(t, c.NumFeatures(), restored.NumFeatures())
	assert.Equal(t, c.Converged(), restored.Converged())

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, c.SaveFile(path))
	fromFile := New()
	require.NoError(t, fromFile.LoadFile(path))
	got, err = fromFile.Predict(docs)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Error(t, New().Load(strings.NewReader("not a gob stream")))
}

func TestClassifier_LoadKeepsConvergence(t *testing.T) {
	texts, labels := reviews()
	c := New()
	require.NoError(t, c.Fit(texts, labels, KindLogReg))
	c.pipeline.Converged = false

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New()
	require.NoError(t, restored.Load(&buf))
	assert.False(t, restored.Converged())
}

func TestClassifier_Chinese(t *testing.T) {
	texts := []string{
		"这部电影非常精彩我很喜欢",
		"演员表演精彩故事感人我喜欢",
		"非常好看的电影强烈推荐",
		"这部电影非常无聊我很讨厌",
		"演员表演糟糕故事无聊我讨厌",
		"非常难看的电影不推荐",
	}
	labels := []int{1, 1, 1, 0, 0, 0}

	seg := &splitRunes{}
	c := New(WithSegmenter(seg))
	require.NoError(t, c.Fit(texts, labels, KindNBSVM))
	assert.Equal(t, "zh", c.Language())
	assert.Equal(t, len(texts), seg.calls)

	pred, err := c.Predict([]string{"这部电影很精彩", "这部电影很无聊"})
	require.NoError(t, err)
	assert.Len(t, pred, 2)
	assert.Equal(t, len(texts)+2, seg.calls)
}
