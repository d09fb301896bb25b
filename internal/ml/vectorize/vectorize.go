// Package vectorize turns raw documents into bag-of-ngrams feature matrices.
package vectorize

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/egmaziero/ktrain/internal/ml/matrix"
)

// asciiPunctuation is every printable ASCII punctuation character.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Token patterns used by the text classifier. Word characters are matched
// with Unicode classes so accented and non-Latin letters stay in one token.
var (
	// WordPunctPattern matches runs of word characters or a single ASCII
	// punctuation mark.
	WordPunctPattern = `[\p{L}\p{N}_]+|[` + escapeClass(asciiPunctuation) + `]`
	// WordPattern matches runs of word characters only.
	WordPattern = `[\p{L}\p{N}_]+`
)

// ErrEmptyVocabulary is returned when fitting produces no features.
var ErrEmptyVocabulary = errors.New("vectorize: empty vocabulary; documents contain no tokens")

// ErrNotFitted is returned when Transform is called before Fit.
var ErrNotFitted = errors.New("vectorize: vocabulary is not fitted")

// CountVectorizer counts word n-grams. Fields are exported so a fitted
// vectorizer can be serialized along with the estimator it feeds.
type CountVectorizer struct {
	TokenPattern string
	NgramMin     int
	NgramMax     int
	Binary       bool
	Lowercase    bool
	Vocabulary   map[string]int

	re *regexp.Regexp
}

// New returns a lowercasing vectorizer for the given pattern and n-gram range.
func New(pattern string, ngramMin, ngramMax int, binary bool) *CountVectorizer {
	return &CountVectorizer{
		TokenPattern: pattern,
		NgramMin:     ngramMin,
		NgramMax:     ngramMax,
		Binary:       binary,
		Lowercase:    true,
	}
}

// VocabSize returns the number of fitted features.
func (v *CountVectorizer) VocabSize() int {
	return len(v.Vocabulary)
}

// Features returns the feature names ordered by column index.
func (v *CountVectorizer) Features() []string {
	out := make([]string, len(v.Vocabulary))
	for term, idx := range v.Vocabulary {
		out[idx] = term
	}
	return out
}

// Analyze splits a document into its n-gram terms.
func (v *CountVectorizer) Analyze(doc string) ([]string, error) {
	re, err := v.regexp()
	if err != nil {
		return nil, err
	}
	if v.Lowercase {
		doc = strings.ToLower(doc)
	}
	return ngrams(re.FindAllString(doc, -1), v.NgramMin, v.NgramMax), nil
}

// Fit learns the vocabulary. Terms are indexed in lexicographic order.
func (v *CountVectorizer) Fit(docs []string) error {
	if v.NgramMin < 1 || v.NgramMax < v.NgramMin {
		return fmt.Errorf("vectorize: invalid ngram range (%d, %d)", v.NgramMin, v.NgramMax)
	}

	seen := make(map[string]struct{})
	for _, doc := range docs {
		terms, err := v.Analyze(doc)
		if err != nil {
			return err
		}
		for _, t := range terms {
			seen[t] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	v.Vocabulary = make(map[string]int, len(terms))
	for i, t := range terms {
		v.Vocabulary[t] = i
	}
	return nil
}

// Transform maps documents onto the fitted vocabulary. Unknown terms are
// dropped.
func (v *CountVectorizer) Transform(docs []string) (*matrix.CSR, error) {
	if len(v.Vocabulary) == 0 {
		return nil, ErrNotFitted
	}

	b := matrix.NewCSRBuilder(len(v.Vocabulary))
	for _, doc := range docs {
		terms, err := v.Analyze(doc)
		if err != nil {
			return nil, err
		}
		counts := make(map[int]float64, len(terms))
		for _, t := range terms {
			idx, ok := v.Vocabulary[t]
			if !ok {
				continue
			}
			if v.Binary {
				counts[idx] = 1
			} else {
				counts[idx]++
			}
		}
		b.AddRow(counts)
	}
	return b.Build(), nil
}

// FitTransform fits the vocabulary and transforms the same documents.
func (v *CountVectorizer) FitTransform(docs []string) (*matrix.CSR, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

func (v *CountVectorizer) regexp() (*regexp.Regexp, error) {
	if v.re != nil && v.re.String() == v.TokenPattern {
		return v.re, nil
	}
	re, err := regexp.Compile(v.TokenPattern)
	if err != nil {
		return nil, fmt.Errorf("vectorize: compile token pattern: %w", err)
	}
	v.re = re
	return re, nil
}

// ngrams expands tokens into every n-gram with min <= n <= max, joined by a
// single space. Unigrams come first, then bigrams, and so on.
func ngrams(tokens []string, min, max int) []string {
	if max == 1 {
		return tokens
	}
	out := make([]string, 0, len(tokens)*(max-min+1))
	for n := min; n <= max && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func escapeClass(chars string) string {
	var sb strings.Builder
	for _, c := range chars {
		sb.WriteByte('\\')
		sb.WriteRune(c)
	}
	return sb.String()
}
