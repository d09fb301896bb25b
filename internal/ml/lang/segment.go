package lang

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
	"go.uber.org/zap"
)

// Segmenter splits unspaced text into words.
type Segmenter interface {
	Cut(text string) []string
}

// GSESegmenter segments Chinese with the gse dictionary segmenter. The
// dictionary compiled into gse is loaded on first use; if it cannot be
// loaded a warning is logged and every Han character becomes its own token.
type GSESegmenter struct {
	once     sync.Once
	seg      gse.Segmenter
	load     func(seg *gse.Segmenter) error
	fallback Segmenter
	loadErr  error
	logger   *zap.Logger
}

// NewGSESegmenter returns a lazily loaded dictionary segmenter. logger may
// be nil.
func NewGSESegmenter(logger *zap.Logger) *GSESegmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GSESegmenter{
		load:     loadEmbeddedDict,
		fallback: RuneSegmenter{},
		logger:   logger,
	}
}

// loadEmbeddedDict loads the simplified Chinese dictionary embedded in the
// gse module, so no source tree is needed at run time.
func loadEmbeddedDict(seg *gse.Segmenter) error {
	seg.SkipLog = true
	return seg.LoadDictEmbed()
}

// Cut splits text into dictionary words.
func (g *GSESegmenter) Cut(text string) []string {
	g.once.Do(func() {
		g.loadErr = g.load(&g.seg)
		if g.loadErr != nil {
			g.logger.Warn("gse dictionary unavailable, segmenting Chinese one character per token",
				zap.Error(g.loadErr),
			)
		}
	})
	if g.loadErr != nil {
		return g.fallback.Cut(text)
	}
	return g.seg.Cut(text, true)
}

// LoadError returns the dictionary load error, if any.
func (g *GSESegmenter) LoadError() error {
	return g.loadErr
}

// RuneSegmenter emits every Han character as a token and keeps runs of
// other non-space characters together.
type RuneSegmenter struct{}

// Cut splits text at Han characters and whitespace.
func (RuneSegmenter) Cut(text string) []string {
	var out []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			out = append(out, run.String())
			run.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			out = append(out, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			run.WriteRune(r)
		}
	}
	flush()
	return out
}

// SplitChinese segments every document and rejoins the words with spaces.
func SplitChinese(texts []string, seg Segmenter) []string {
	out := make([]string, len(texts))
	for i, doc := range texts {
		out[i] = strings.Join(seg.Cut(doc), " ")
	}
	return out
}
