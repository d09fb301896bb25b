// Package lang detects the dominant language of a document collection and
// prepares Chinese text for whitespace-oriented tokenization.
package lang

import (
	"sort"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"
)

const (
	// SampleSize is the number of leading documents inspected by Detect.
	SampleSize = 32
	// DefaultLanguage is returned when no document yields a language.
	DefaultLanguage = "en"
)

// Detect returns the ISO 639-1 code of the most common language among the
// first SampleSize documents. Ties go to the code that sorts first. When
// nothing can be detected it logs a warning and returns DefaultLanguage.
func Detect(texts []string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}

	counts := make(map[string]int)
	for i, doc := range texts {
		if i >= SampleSize {
			break
		}
		info := whatlanggo.Detect(doc)
		if info.Script == nil {
			continue
		}
		code := info.Lang.Iso6391()
		switch {
		case info.Script == unicode.Han:
			code = "zh"
		case code == "":
			code = info.Lang.Iso6393()
		}
		if code == "" {
			continue
		}
		counts[code]++
	}

	if len(counts) == 0 {
		logger.Warn("could not detect language from documents, defaulting to English",
			zap.Int("documents", len(texts)),
		)
		return DefaultLanguage
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	best := codes[0]
	for _, code := range codes[1:] {
		if counts[code] > counts[best] {
			best = code
		}
	}
	return best
}

// IsChinese reports whether code denotes Chinese.
func IsChinese(code string) bool {
	switch code {
	case "zh", "zh-cn", "zh-tw", "cmn":
		return true
	}
	return false
}
