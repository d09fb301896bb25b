package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// EmptyTextPlaceholder replaces empty text cells.
const EmptyTextPlaceholder = "fillna"

// CSVOptions controls TextsFromCSV.
type CSVOptions struct {
	TextColumn  string
	LabelColumn string
	Sep         rune
	// Encoding names the character encoding. Empty means detect.
	Encoding string
	Logger   *zap.Logger
}

// DefaultCSVOptions reads comma separated "text" and "label" columns.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{TextColumn: "text", LabelColumn: "label", Sep: ','}
}

// TextsFromCSV loads documents from a CSV file with a header row. Labels
// are encoded with EncodeLabels.
func TextsFromCSV(filename string, opts CSVOptions) (*Dataset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TextColumn == "" {
		opts.TextColumn = "text"
	}
	if opts.LabelColumn == "" {
		opts.LabelColumn = "label"
	}
	if opts.Sep == 0 {
		opts.Sep = ','
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", filename, err)
	}
	encName := opts.Encoding
	if encName == "" {
		encName = DetectEncoding([][]byte{raw})
		if encName != UTF8 {
			logger.Info("detected encoding", zap.String("encoding", encName))
		}
	}
	decoded, err := Decode([][]byte{raw}, encName, logger)
	if err != nil {
		return nil, err
	}

	ds, err := readCSV(strings.NewReader(decoded[0]), opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", filename, err)
	}
	logger.Info("loaded documents from csv",
		zap.String("file", filename),
		zap.Int("documents", ds.Len()),
		zap.Strings("classes", ds.LabelNames),
	)
	return ds, nil
}

func readCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.Sep
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	textIdx, labelIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case opts.TextColumn:
			textIdx = i
		case opts.LabelColumn:
			labelIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("text column %q not found", opts.TextColumn)
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("label column %q not found", opts.LabelColumn)
	}

	var texts, labels []string
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if labelIdx >= len(rec) || strings.TrimSpace(rec[labelIdx]) == "" {
			return nil, fmt.Errorf("row %d: missing label", row)
		}
		text := ""
		if textIdx < len(rec) {
			text = rec[textIdx]
		}
		if text == "" {
			text = EmptyTextPlaceholder
		}
		texts = append(texts, text)
		labels = append(labels, strings.TrimSpace(rec[labelIdx]))
	}
	if len(texts) == 0 {
		return nil, ErrNoDocuments
	}

	encoded, names := EncodeLabels(labels)
	return &Dataset{Texts: texts, Labels: encoded, LabelNames: names}, nil
}
