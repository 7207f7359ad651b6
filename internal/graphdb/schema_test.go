package graphdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	db, err := bbolt.Open(path, 0o644, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEnsureSchema_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, EnsureSchema(db))

	err := db.View(func(tx *bbolt.Tx) error {
		for _, table := range AllTables {
			assert.NotNil(t, tx.Bucket([]byte(table)), "missing bucket %s", table)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestEnsureSchema_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, EnsureSchema(db))
	require.NoError(t, EnsureSchema(db))

	count, err := CountRows(db, TableFiles)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
