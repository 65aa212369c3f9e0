package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStopWords(t *testing.T) {
	content := []byte("the\nand\nof\n")
	path := filepath.Join(t.TempDir(), "stop_words.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sw, err := ReadStopWords(path)
	require.NoError(t, err)

	assert.Equal(t, 3, sw.Len())
	assert.True(t, sw.Contains("the"))
	assert.True(t, sw.Contains("and"))
	assert.False(t, sw.Contains("fish"))
	assert.Equal(t, ContentHash(content), sw.Hash)
}

func TestReadStopWordsMissingFile(t *testing.T) {
	_, err := ReadStopWords(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestStopWordsNilSafe(t *testing.T) {
	var sw *StopWords
	assert.False(t, sw.Contains("anything"))
}
