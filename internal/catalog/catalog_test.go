package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "sum", "problem.yaml"), "id: sum\ntitle: A plus B\ntime_limit: 1\n")
	writeFile(t, filepath.Join(root, "sum", "index.md"), "# Add two numbers")
	writeFile(t, filepath.Join(root, "sum", "tests", "2.in"), "2 2\n")
	writeFile(t, filepath.Join(root, "sum", "tests", "2.out"), "4\n")
	writeFile(t, filepath.Join(root, "sum", "tests", "1.in"), "1 2\n")
	writeFile(t, filepath.Join(root, "sum", "tests", "1.out"), "3\n")

	writeFile(t, filepath.Join(root, "bare", "problem.yaml"), "id: bare\n")
	writeFile(t, filepath.Join(root, "broken", "problem.yaml"), "title: no id\n")

	store, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	sum, err := store.FindByID("sum")
	require.NoError(t, err)
	assert.Equal(t, "A plus B", sum.Title)
	assert.Equal(t, 1, sum.TimeLimit)
	assert.Equal(t, int64(256), sum.MemoryLimit)
	assert.Equal(t, "# Add two numbers", sum.Description)
	require.Len(t, sum.TestCases, 2)
	assert.Equal(t, "1", sum.TestCases[0].Name)
	assert.Equal(t, "3\n", sum.TestCases[0].Output)

	bare, err := store.FindByID("bare")
	require.NoError(t, err)
	assert.Equal(t, "bare", bare.Title)
	assert.Empty(t, bare.TestCases)

	_, err = store.FindByID("broken")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMissingExpectedOutput(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "p", "problem.yaml"), "id: p\n")
	writeFile(t, filepath.Join(root, "p", "tests", "1.in"), "x")

	store, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}
