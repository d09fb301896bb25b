package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestEncodeLabels(t *testing.T) {
	t.Run("lexicographic", func(t *testing.T) {
		enc, names := EncodeLabels([]string{"pos", "neg", "pos", "neutral"})
		assert.Equal(t, []string{"neg", "neutral", "pos"}, names)
		assert.Equal(t, []int{2, 0, 2, 1}, enc)
	})

	t.Run("numeric", func(t *testing.T) {
		enc, names := EncodeLabels([]string{"10", "2", "1", "2"})
		assert.Equal(t, []string{"1", "2", "10"}, names)
		assert.Equal(t, []int{2, 1, 0, 1}, enc)
	})
}

func TestDataset_LabelName(t *testing.T) {
	d := &Dataset{LabelNames: []string{"neg", "pos"}}
	assert.Equal(t, "pos", d.LabelName(1))
	assert.Equal(t, "7", d.LabelName(7))
}

func TestSplit(t *testing.T) {
	d := &Dataset{LabelNames: []string{"a", "b"}}
	for i := 0; i < 200; i++ {
		d.Texts = append(d.Texts, "document "+string(rune('a'+i%26)))
		d.Labels = append(d.Labels, i%2)
	}

	train, test, err := Split(d, 0.2)
	require.NoError(t, err)
	assert.Equal(t, d.Len(), train.Len()+test.Len())
	assert.Greater(t, test.Len(), 10)
	assert.Greater(t, train.Len(), test.Len())
	assert.Equal(t, d.LabelNames, test.LabelNames)

	train2, test2, err := Split(d, 0.2)
	require.NoError(t, err)
	assert.Equal(t, train.Texts, train2.Texts)
	assert.Equal(t, test.Labels, test2.Labels)

	_, _, err = Split(d, 1.5)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	t.Run("utf-8 strips bom", func(t *testing.T) {
		out, err := Decode([][]byte{append([]byte{0xEF, 0xBB, 0xBF}, "héllo"...)}, "UTF8", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"héllo"}, out)
	})

	t.Run("windows-1252", func(t *testing.T) {
		out, err := Decode([][]byte{[]byte("caf\xe9")}, "windows-1252", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"café"}, out)
	})

	t.Run("falls back to line decoding", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		docs := [][]byte{
			[]byte("first line\n\xff\xfe broken\nlast line"),
			[]byte("clean"),
		}
		out, err := Decode(docs, "utf-8", zap.New(core))
		require.NoError(t, err)
		assert.Equal(t, []string{"first line\nlast line", "clean"}, out)
		assert.Equal(t, 1, logs.FilterMessage("strict decoding failed, decoding line by line with skips").Len())
		// 1 of 4 lines skipped
		assert.Equal(t, 1, logs.FilterMessage("many lines were skipped while decoding, try a different encoding").Len())
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := Decode([][]byte{[]byte("x")}, "no-such-charset", nil)
		assert.Error(t, err)
	})
}

func TestDecodeByLine_FewSkipsNoWarning(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	doc := []byte("a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nk\n\xff")
	out, err := DecodeByLine([][]byte{doc}, "utf-8", zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nk", out[0])
	assert.Equal(t, 1, logs.FilterMessage("decoded documents line by line").Len())
	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, UTF8, DetectEncoding(nil))

	utf := []byte("Größenwahn für Äpfel und Öl, naïve café crème brûlée déjà vu señor")
	assert.Equal(t, UTF8, DetectEncoding([][]byte{utf, utf, utf}))
}

func TestTextsFromFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pos", "b.txt"), []byte("great movie"))
	writeFile(t, filepath.Join(root, "pos", "a.txt"), []byte("loved it"))
	writeFile(t, filepath.Join(root, "neg", "a.txt"), []byte("boring plot"))
	writeFile(t, filepath.Join(root, "neg", "notes.md"), []byte("ignored"))
	writeFile(t, filepath.Join(root, "skip", "a.txt"), []byte("not a class"))
	writeFile(t, filepath.Join(root, "README"), []byte("top level file"))

	t.Run("ordered", func(t *testing.T) {
		ds, err := TextsFromFolder(root, FolderOptions{
			Subfolders: []string{"pos", "neg"},
			Include:    "*.txt",
			Encoding:   "utf-8",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"neg", "pos"}, ds.LabelNames)
		assert.Equal(t, []string{"boring plot", "loved it", "great movie"}, ds.Texts)
		assert.Equal(t, []int{0, 1, 1}, ds.Labels)
	})

	t.Run("shuffled keeps pairs", func(t *testing.T) {
		opts := DefaultFolderOptions()
		opts.Subfolders = []string{"pos", "neg"}
		opts.Include = "*.txt"
		ds, err := TextsFromFolder(root, opts)
		require.NoError(t, err)
		require.Equal(t, 3, ds.Len())

		byText := map[string]int{}
		for i, text := range ds.Texts {
			byText[text] = ds.Labels[i]
		}
		assert.Equal(t, map[string]int{"boring plot": 0, "loved it": 1, "great movie": 1}, byText)

		again, err := TextsFromFolder(root, opts)
		require.NoError(t, err)
		assert.Equal(t, ds.Texts, again.Texts)
	})

	t.Run("all subfolders", func(t *testing.T) {
		ds, err := TextsFromFolder(root, FolderOptions{Include: "*.txt"})
		require.NoError(t, err)
		assert.Equal(t, []string{"neg", "pos", "skip"}, ds.LabelNames)
		texts := append([]string(nil), ds.Texts...)
		sort.Strings(texts)
		assert.Equal(t, []string{"boring plot", "great movie", "loved it", "not a class"}, texts)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := TextsFromFolder(root, FolderOptions{Include: "*.csv"})
		assert.ErrorIs(t, err, ErrNoDocuments)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := TextsFromFolder(root, FolderOptions{Include: "[a-"})
		assert.Error(t, err)
	})
}

func TestTextsFromCSV(t *testing.T) {
	dir := t.TempDir()

	t.Run("defaults", func(t *testing.T) {
		path := filepath.Join(dir, "train.csv")
		writeFile(t, path, []byte("id,text,label\n1,good stuff,pos\n2,,neg\n3,\"bad, really\",neg\n"))

		ds, err := TextsFromCSV(path, DefaultCSVOptions())
		require.NoError(t, err)
		assert.Equal(t, []string{"good stuff", EmptyTextPlaceholder, "bad, really"}, ds.Texts)
		assert.Equal(t, []string{"neg", "pos"}, ds.LabelNames)
		assert.Equal(t, []int{1, 0, 0}, ds.Labels)
	})

	t.Run("custom columns and separator", func(t *testing.T) {
		path := filepath.Join(dir, "train.tsv")
		writeFile(t, path, []byte("body\tstars\nfine\t3\nawful\t1\n"))

		ds, err := TextsFromCSV(path, CSVOptions{TextColumn: "body", LabelColumn: "stars", Sep: '\t', Encoding: "utf-8"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, ds.LabelNames)
		assert.Equal(t, []int{1, 0}, ds.Labels)
	})

	t.Run("missing column", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		writeFile(t, path, []byte("body,label\nx,1\n"))
		_, err := TextsFromCSV(path, DefaultCSVOptions())
		assert.ErrorContains(t, err, `text column "text" not found`)
	})

	t.Run("missing label", func(t *testing.T) {
		path := filepath.Join(dir, "nolabel.csv")
		writeFile(t, path, []byte("text,label\nx,\n"))
		_, err := TextsFromCSV(path, DefaultCSVOptions())
		assert.ErrorContains(t, err, "row 1: missing label")
	})
}
