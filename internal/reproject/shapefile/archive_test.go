package shapefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_RejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "evil.zip")
	writeZip(t, archive, map[string]string{
		"../escape.txt": "outside",
	})

	dest := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(dest, 0o755))

	err := Extract(archive, dest)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "escape.txt"))
}

func TestCreateExtract_RoundTrip(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	files := map[string]string{
		"roads.shp": "geometry bytes",
		"roads.prj": "PROJCS[...]",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(content), 0o644))
	}
	// nested dirs are not packed
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))

	archive := filepath.Join(root, "roads.zip")
	require.NoError(t, Create(archive, src))

	dest := filepath.Join(root, "dest")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, Extract(archive, dest))

	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(dest, name))
		require.NoError(t, err)
		assert.Equal(t, content, string(got))
	}
	assert.NoDirExists(t, filepath.Join(dest, "nested"))
}
