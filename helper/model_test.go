package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel creates an already downloaded model directory.
func fakeModel(t *testing.T, name string) string {
	path := filepath.Join(ModelDirectory, name)
	require.NoError(t, os.MkdirAll(path, 0750), "Expected model directory creation to succeed")
	t.Cleanup(func() { _ = os.RemoveAll(path) })
	return path
}

func TestPrepareModel(t *testing.T) {
	t.Run("Existing model is not downloaded again", func(t *testing.T) {
		expected := fakeModel(t, "kgraph-test_cached-embedder")

		path, err := PrepareModel("kgraph-test/cached-embedder", "")
		require.NoError(t, err)
		assert.Equal(t, expected, path, "Expected the slash in the model name to be replaced")
	})

	t.Run("Model name without organization", func(t *testing.T) {
		expected := fakeModel(t, "kgraph-test-embedder")

		path, err := PrepareModel("kgraph-test-embedder", "onnx/model.onnx")
		require.NoError(t, err)
		assert.Equal(t, expected, path)
	})

	t.Run("Download the default embedding model", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping model download in short mode")
		}

		path, err := PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")
		if err != nil {
			// Depends on network access
			assert.Contains(t, err.Error(), "failed to", "Expected a download error")
			return
		}
		assert.DirExists(t, path, "Expected the model directory to exist")
	})
}
