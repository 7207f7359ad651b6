package graphdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_SharesHandleAcrossCallers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")

	db1, err := Acquire(path)
	require.NoError(t, err)
	db2, err := Acquire(path)
	require.NoError(t, err)

	assert.Same(t, db1, db2)

	require.NoError(t, Release(path))
	require.NoError(t, Release(path))
	assert.Equal(t, 0, OpenCount())
}

func TestAcquire_EnsuresSchemaOnFirstOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")

	db, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = Release(path) }()

	count, err := CountRows(db, TableDirectories)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRelease_WithoutAcquireIsNoop(t *testing.T) {
	assert.NoError(t, Release(filepath.Join(t.TempDir(), "never-opened.db")))
}
