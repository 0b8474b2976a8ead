package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/resolvit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	backend, err := OpenBackend(tmpFile, false)
	if backend != nil {
		backend.Close()
	}
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	// Closing twice is harmless
	require.NoError(t, backend.Close())
}

func TestBackend_ClosedReportsStorageClosed(t *testing.T) {
	knowledge, turns, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	turns.Close()
	knowledge.Close()
	require.NoError(t, backend.Close())

	_, err = knowledge.ListFAQs(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction_Commits(t *testing.T) {
	knowledge, turns, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		turns.Close()
		knowledge.Close()
		backend.Close()
	}()

	called := false
	err = knowledge.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestDotProduct(t *testing.T) {
	assert.InDelta(t, 1.0, dotProduct([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, dotProduct([]float32{1, 0}, []float32{0, 1}), 1e-6)
	// Mismatched lengths use the shorter vector
	assert.InDelta(t, 2.0, dotProduct([]float32{1, 1, 5}, []float32{1, 1}), 1e-6)
	assert.Zero(t, dotProduct(nil, []float32{1}))
}
