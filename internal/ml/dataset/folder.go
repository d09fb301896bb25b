package dataset

import (
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// FolderOptions controls TextsFromFolder.
type FolderOptions struct {
	// Subfolders restricts loading to the named class folders. Empty means
	// every subfolder.
	Subfolders []string
	// Include is a doublestar pattern matched against paths relative to
	// each class folder. Empty means "*".
	Include string
	Shuffle bool
	Seed    uint64
	// Encoding names the character encoding. Empty means detect.
	Encoding string
	Logger   *zap.Logger
}

// DefaultFolderOptions returns shuffled loading with seed 42.
func DefaultFolderOptions() FolderOptions {
	return FolderOptions{Include: "*", Shuffle: true, Seed: 42}
}

// TextsFromFolder loads documents from root/<class>/<file>. Classes are the
// sorted subfolder names; class k is the k-th of them.
func TextsFromFolder(root string, opts FolderOptions) (*Dataset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pattern := opts.Include
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("dataset: invalid include pattern %q", pattern)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", root, err)
	}
	wanted := make(map[string]bool, len(opts.Subfolders))
	for _, s := range opts.Subfolders {
		wanted[s] = true
	}

	var classes []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if len(wanted) > 0 && !wanted[e.Name()] {
			continue
		}
		classes = append(classes, e.Name())
	}
	sort.Strings(classes)

	var raw [][]byte
	var labels []int
	fsys := os.DirFS(root)
	for k, class := range classes {
		classFS, err := fs.Sub(fsys, class)
		if err != nil {
			return nil, fmt.Errorf("dataset: open %s: %w", class, err)
		}
		matches, err := doublestar.Glob(classFS, pattern)
		if err != nil {
			return nil, fmt.Errorf("dataset: glob %s/%s: %w", class, pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			info, err := fs.Stat(classFS, m)
			if err != nil {
				return nil, fmt.Errorf("dataset: stat %s: %w", path.Join(class, m), err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
			b, err := fs.ReadFile(classFS, m)
			if err != nil {
				return nil, fmt.Errorf("dataset: read %s: %w", path.Join(class, m), err)
			}
			raw = append(raw, b)
			labels = append(labels, k)
		}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoDocuments, root)
	}

	if opts.Shuffle {
		rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
		rng.Shuffle(len(raw), func(i, j int) {
			raw[i], raw[j] = raw[j], raw[i]
			labels[i], labels[j] = labels[j], labels[i]
		})
	}

	encName := opts.Encoding
	if encName == "" {
		encName = DetectEncoding(raw)
		if encName != UTF8 {
			logger.Info("detected encoding", zap.String("encoding", encName))
		}
	}
	texts, err := Decode(raw, encName, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded documents from folder",
		zap.String("root", root),
		zap.Int("documents", len(texts)),
		zap.Strings("classes", classes),
	)
	return &Dataset{Texts: texts, Labels: labels, LabelNames: classes}, nil
}
