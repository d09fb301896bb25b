package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	// EncodingSampleSize is the number of documents inspected when
	// detecting an encoding.
	EncodingSampleSize = 32
	// UTF8 is the canonical name returned for UTF-8 and ASCII input.
	UTF8 = "utf-8"

	// skipWarnPct is the share of skipped lines above which a different
	// encoding is suggested.
	skipWarnPct = 10.0
)

var errDecode = errors.New("dataset: undecodable bytes")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding guesses the character encoding of raw documents by
// majority vote over the first EncodingSampleSize of them. Documents that
// are valid UTF-8 vote for UTF8 without running the detector. An empty
// sample defaults to UTF8.
func DetectEncoding(docs [][]byte) string {
	detector := chardet.NewTextDetector()
	counts := make(map[string]int)
	for i, doc := range docs {
		if i >= EncodingSampleSize {
			break
		}
		if len(doc) == 0 {
			continue
		}
		if utf8.Valid(doc) {
			counts[UTF8]++
			continue
		}
		res, err := detector.DetectBest(doc)
		if err != nil || res == nil {
			continue
		}
		counts[normalizeEncoding(res.Charset)]++
	}
	if len(counts) == 0 {
		return UTF8
	}

	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	best := names[0]
	for _, n := range names[1:] {
		if counts[n] > counts[best] {
			best = n
		}
	}
	return best
}

// Decode converts every document to a string. A strict decode of all
// documents is tried first; if any document fails, every document is
// decoded line by line and undecodable lines are skipped.
func Decode(docs [][]byte, name string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	name = normalizeEncoding(name)
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(docs))
	for i, doc := range docs {
		text, err := decodeStrict(doc, enc)
		if err != nil {
			logger.Warn("strict decoding failed, decoding line by line with skips",
				zap.String("encoding", name),
				zap.Int("document", i),
			)
			return decodeByLine(docs, name, enc, logger), nil
		}
		out[i] = text
	}
	return out, nil
}

// DecodeByLine decodes each document line by line, dropping lines that do
// not decode under the named encoding.
func DecodeByLine(docs [][]byte, name string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	name = normalizeEncoding(name)
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return decodeByLine(docs, name, enc, logger), nil
}

func decodeByLine(docs [][]byte, name string, enc encoding.Encoding, logger *zap.Logger) []string {
	out := make([]string, len(docs))
	var lines, skips int
	for i, doc := range docs {
		kept := make([]string, 0, 16)
		for _, line := range splitLines(doc) {
			lines++
			text, err := decodeStrict(line, enc)
			if err != nil {
				skips++
				continue
			}
			kept = append(kept, text)
		}
		out[i] = strings.Join(kept, "\n")
	}

	var pct float64
	if lines > 0 {
		pct = float64(skips) / float64(lines) * 100
	}
	logger.Info("decoded documents line by line",
		zap.String("encoding", name),
		zap.Int("skipped_lines", skips),
		zap.Int("total_lines", lines),
		zap.Float64("skipped_pct", pct),
	)
	if pct > skipWarnPct {
		logger.Warn("many lines were skipped while decoding, try a different encoding",
			zap.String("encoding", name),
			zap.Float64("skipped_pct", pct),
		)
	}
	return out
}

// decodeStrict decodes b and fails on any byte sequence that is invalid in
// the encoding. A nil enc means UTF-8.
func decodeStrict(b []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		b = bytes.TrimPrefix(b, utf8BOM)
		if !utf8.Valid(b) {
			return "", errDecode
		}
		return string(b), nil
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errDecode, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errDecode
	}
	return string(out), nil
}

// lookupEncoding resolves an encoding name. UTF-8 resolves to nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == UTF8 {
		return nil, nil
	}
	for _, candidate := range []string{name, strings.ReplaceAll(name, "-", "")} {
		if enc, err := htmlindex.Get(candidate); err == nil {
			return enc, nil
		}
		if enc, err := ianaindex.IANA.Encoding(candidate); err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("dataset: unsupported encoding %q", name)
}

func normalizeEncoding(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "ascii", "us-ascii", "utf8", "utf-8":
		return UTF8
	}
	return n
}

// splitLines splits on \n, \r\n and \r without keeping terminators.
func splitLines(b []byte) [][]byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	lines := bytes.Split(b, []byte("\n"))
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	return lines
}
