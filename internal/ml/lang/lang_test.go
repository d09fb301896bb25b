package lang

import (
	"errors"
	"testing"

	"github.com/go-ego/gse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDetect(t *testing.T) {
	t.Run("english majority", func(t *testing.T) {
		texts := []string{
			"The quick brown fox jumps over the lazy dog and keeps running through the field.",
			"This movie was wonderful, the acting and the story were both excellent.",
			"Je pense donc je suis, et je voudrais un café avec du lait s'il vous plaît.",
		}
		assert.Equal(t, "en", Detect(texts, nil))
	})

	t.Run("chinese", func(t *testing.T) {
		texts := []string{
			"我们今天去公园散步，天气非常好。",
			"这部电影非常好看，我很喜欢。",
		}
		assert.True(t, IsChinese(Detect(texts, nil)))
	})

	t.Run("defaults to english and warns", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)

		assert.Equal(t, DefaultLanguage, Detect([]string{"", "1234 !!"}, zap.New(core)))
		assert.Equal(t, 1, logs.Len())
	})
}

func TestIsChinese(t *testing.T) {
	assert.True(t, IsChinese("zh"))
	assert.True(t, IsChinese("zh-tw"))
	assert.False(t, IsChinese("en"))
	assert.False(t, IsChinese("ja"))
}

func TestRuneSegmenter(t *testing.T) {
	got := RuneSegmenter{}.Cut("我爱 Go语言 v2")
	assert.Equal(t, []string{"我", "爱", "Go", "语", "言", "v2"}, got)
}

func TestGSESegmenter(t *testing.T) {
	t.Run("keeps dictionary words together", func(t *testing.T) {
		seg := NewGSESegmenter(nil)

		got := seg.Cut("我们今天去公园散步")

		require.NoError(t, seg.LoadError())
		assert.Contains(t, got, "我们")
		assert.Contains(t, got, "公园")
		assert.NotContains(t, got, "我")
	})

	t.Run("logs and falls back when the dictionary fails", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		seg := NewGSESegmenter(zap.New(core))
		seg.load = func(*gse.Segmenter) error { return errors.New("dictionary missing") }

		got := seg.Cut("我们去")
		seg.Cut("公园")

		assert.Equal(t, []string{"我", "们", "去"}, got)
		assert.EqualError(t, seg.LoadError(), "dictionary missing")
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "dictionary missing", logs.All()[0].ContextMap()["error"])
	})
}

func TestSplitChinese(t *testing.T) {
	got := SplitChinese([]string{"北京欢迎你", ""}, RuneSegmenter{})
	assert.Equal(t, []string{"北 京 欢 迎 你", ""}, got)
}
