package persistence

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/model"
)

func sampleIndex() *index.SearchIndex {
	idx := index.NewSearchIndex()
	for _, e := range []struct {
		name, path string
		category   model.Category
		partials   []string
	}{
		{"Tick", "Classes/AActor/Functions/Tick.html", model.CategoryFunction, nil},
		{"TestInt", "Classes/UTest/Variables/TestInt.html", model.CategoryVariable, []string{"test", "int"}},
		{"tick", "Namespaces/Util/Functions/tick.html", model.CategoryFunction, nil},
		{"ÉtatMajor", "Classes/ÉtatMajor.html", model.CategoryClass, []string{"état", "major"}},
	} {
		idx.Trie.Insert(e.name)
		idx.Tokens.Record(e.name, e.category, e.path, true)
		for _, p := range e.partials {
			idx.Tokens.Record(p, e.category, e.path, false)
		}
		idx.Metadata.Put(e.path, model.BasicSearchInfo{Name: e.name, Type: e.category, Description: "<b>" + e.name + "</b>"})
	}
	return idx
}

func TestBundleRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatGob} {
		t.Run(string(format), func(t *testing.T) {
			original := sampleIndex()
			builtAt := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, NewBundle(original, "v-1", builtAt), format))

			decoded, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, "v-1", decoded.IndexVersion)
			assert.True(t, builtAt.Equal(decoded.BuiltAt))

			restored, err := decoded.Index()
			require.NoError(t, err)

			assert.Equal(t, original.Stats(), restored.Stats())
			for _, prefix := range []string{"t", "TE", "é", "x"} {
				assert.Equal(t, original.Trie.Suggest(prefix), restored.Trie.Suggest(prefix), "prefix %q", prefix)
			}
			for _, token := range []string{"Tick", "test", "état", "missing"} {
				assert.Equal(t, original.Tokens.Lookup(token), restored.Tokens.Lookup(token), "token %q", token)
			}
			assert.Equal(t, original.Metadata.Records(), restored.Metadata.Records())
		})
	}
}

func TestBundleOfEmptyIndex(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatGob} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, NewBundle(index.NewSearchIndex(), "empty", time.Now()), format))

			decoded, err := Decode(&buf, format)
			require.NoError(t, err)
			restored, err := decoded.Index()
			require.NoError(t, err)

			assert.Equal(t, 0, restored.Stats().Words)
			assert.Equal(t, []string{}, restored.Trie.Suggest("a"))
			assert.True(t, restored.Tokens.Lookup("a").IsEmpty())
		})
	}
}

func TestBundleRejectsUnknownFormatVersion(t *testing.T) {
	b := NewBundle(sampleIndex(), "v", time.Now())
	b.FormatVersion = FormatVersion + 1

	_, err := b.Index()
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"bundle.json", FormatJSON, false},
		{"out/INDEX.JSON", FormatJSON, false},
		{"bundle.gob", FormatGob, false},
		{"bundle.yaml", "", true},
		{"bundle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveAndLoadBundle(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"nested/dir/index.json", "index.gob"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveBundle(path, NewBundle(sampleIndex(), "saved", time.Now())))

			loaded, err := LoadBundle(path)
			require.NoError(t, err)
			assert.Equal(t, "saved", loaded.IndexVersion)

			restored, err := loaded.Index()
			require.NoError(t, err)
			assert.Equal(t, []string{"TestInt"}, restored.Trie.Suggest("te"))
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-", "temp files should be cleaned up")
	}
}

func TestLoadBundleMissingFile(t *testing.T) {
	_, err := LoadBundle(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBundleCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadBundle(path)
	assert.Error(t, err)
}
