// Package dataset loads labeled text collections from a folder-per-class
// layout or from a CSV file, detecting the character encoding when the
// caller does not supply one.
package dataset

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrNoDocuments is returned when a source yields no documents.
var ErrNoDocuments = errors.New("dataset: no documents found")

// Dataset is an ordered document collection with integer class labels.
// LabelNames[k] is the class name for label k.
type Dataset struct {
	Texts      []string
	Labels     []int
	LabelNames []string
}

// Len returns the number of documents.
func (d *Dataset) Len() int {
	return len(d.Texts)
}

// LabelName returns the class name for label k, or its decimal form when k
// is outside the known range.
func (d *Dataset) LabelName(k int) string {
	if k >= 0 && k < len(d.LabelNames) {
		return d.LabelNames[k]
	}
	return strconv.Itoa(k)
}

// EncodeLabels maps string labels onto 0..k-1. Classes are ordered
// numerically when every label parses as a number and lexicographically
// otherwise. It returns the encoded labels and the class names by index.
func EncodeLabels(labels []string) ([]int, []string) {
	seen := make(map[string]struct{})
	names := make([]string, 0, 8)
	numeric := true
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		names = append(names, l)
		if _, err := strconv.ParseFloat(l, 64); err != nil {
			numeric = false
		}
	}

	if numeric {
		sort.SliceStable(names, func(i, j int) bool {
			a, _ := strconv.ParseFloat(names[i], 64)
			b, _ := strconv.ParseFloat(names[j], 64)
			return a < b
		})
	} else {
		sort.Strings(names)
	}

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = index[l]
	}
	return out, names
}

// Split deterministically partitions d into a training and a held-out set.
// Each document lands in the held-out set when the hash of its position and
// text falls under valPct of the hash space, so the same collection always
// splits the same way.
func Split(d *Dataset, valPct float64) (train, test *Dataset, err error) {
	if valPct <= 0 || valPct >= 1 {
		return nil, nil, fmt.Errorf("dataset: val_pct must be in (0,1), got %v", valPct)
	}

	threshold := uint64(float64(^uint64(0)) * valPct)
	train = &Dataset{LabelNames: d.LabelNames}
	test = &Dataset{LabelNames: d.LabelNames}
	for i, text := range d.Texts {
		if stableUint64(strconv.Itoa(i)+"|"+text) <= threshold {
			test.Texts = append(test.Texts, text)
			test.Labels = append(test.Labels, d.Labels[i])
			continue
		}
		train.Texts = append(train.Texts, text)
		train.Labels = append(train.Labels, d.Labels[i])
	}
	if train.Len() == 0 || test.Len() == 0 {
		return nil, nil, fmt.Errorf("dataset: val_pct %v leaves an empty partition of %d documents", valPct, d.Len())
	}
	return train, test, nil
}

func stableUint64(input string) uint64 {
	sum := sha256.Sum256([]byte(input))
	return binary.BigEndian.Uint64(sum[:8])
}
