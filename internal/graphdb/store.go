package graphdb

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/kgraph-dev/kgindex/internal/debug"
)

// idKey turns a dense uint32 node ID into a bbolt key, big-endian so
// Bucket.Cursor() iterates nodes and edges in ID order.
func idKey(id uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return b[:]
}

// Load reads every column file previously written by internal/bulkload
// from dir and bulk-inserts their rows into db inside one transaction —
// the engine's "COPY" verb. A missing column file means that table had no
// rows this run (e.g. a Kotlin-only bucket in an all-Go project) and is
// logged, never treated as an error; a column file that exists but fails
// to decode is, since it signals corrupt output from this same run.
//
// Load assumes db's schema already exists (see EnsureSchema) and that db
// is exclusively owned by the caller for the duration of the call — reindex
// passes its own already-open handle via Acquire/Release rather than
// opening a second one.
func Load(db *bbolt.DB, dir string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		if err := loadRows(tx, dir, TableDirectories, func(b *bbolt.Bucket, r DirectoryRow) error {
			return putGob(b, idKey(r.ID), r)
		}); err != nil {
			return err
		}
		if err := loadRows(tx, dir, TableFiles, func(b *bbolt.Bucket, r FileRow) error {
			return putGob(b, idKey(r.ID), r)
		}); err != nil {
			return err
		}
		if err := loadRows(tx, dir, TableDefinitions, func(b *bbolt.Bucket, r DefinitionRow) error {
			return putGob(b, idKey(r.ID), r)
		}); err != nil {
			return err
		}
		if err := loadRows(tx, dir, TableImportedSymbols, func(b *bbolt.Bucket, r ImportedSymbolRow) error {
			return putGob(b, idKey(r.ID), r)
		}); err != nil {
			return err
		}

		for _, table := range []string{
			TableDirToDir, TableDirToFile, TableFileToDefinition,
			TableFileToImport, TableDefinitionToDefinition, TableDefinitionToImport,
		} {
			if err := loadEdgeRows(tx, dir, table); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadRows decodes the single gob-encoded slice at dir/table.gob (if it
// exists) and writes each row into table's bucket via put.
func loadRows[T any](tx *bbolt.Tx, dir, table string, put func(*bbolt.Bucket, T) error) error {
	path := columnFilePath(dir, table)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		debug.LogGraph("no column file for %s, skipping\n", table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("graphdb: open %s: %w", path, err)
	}
	defer f.Close()

	var rows []T
	if err := gob.NewDecoder(f).Decode(&rows); err != nil {
		return fmt.Errorf("graphdb: decode %s: %w", path, err)
	}

	b := tx.Bucket([]byte(table))
	if b == nil {
		return fmt.Errorf("graphdb: bucket %s missing (schema not initialized)", table)
	}
	for _, row := range rows {
		if err := put(b, row); err != nil {
			return fmt.Errorf("graphdb: put into %s: %w", table, err)
		}
	}
	return nil
}

// loadEdgeRows is loadRows specialized for EdgeRow, whose bucket key is a
// sequence number rather than a node ID — edges have no identity of their
// own beyond (source,target,kind).
func loadEdgeRows(tx *bbolt.Tx, dir, table string) error {
	path := columnFilePath(dir, table)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		debug.LogGraph("no column file for %s, skipping\n", table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("graphdb: open %s: %w", path, err)
	}
	defer f.Close()

	var rows []EdgeRow
	if err := gob.NewDecoder(f).Decode(&rows); err != nil {
		return fmt.Errorf("graphdb: decode %s: %w", path, err)
	}

	b := tx.Bucket([]byte(table))
	if b == nil {
		return fmt.Errorf("graphdb: bucket %s missing (schema not initialized)", table)
	}
	for _, row := range rows {
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := putGob(b, idKey(uint32(seq)), row); err != nil {
			return fmt.Errorf("graphdb: put edge into %s: %w", table, err)
		}
	}
	return nil
}

func putGob(b *bbolt.Bucket, key []byte, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	return b.Put(key, buf.Bytes())
}

// columnFilePath mirrors bulkload.columnFile without importing bulkload
// (graphdb must not depend on bulkload — bulkload depends on graphdb for
// table names and row types).
func columnFilePath(dir, table string) string {
	return filepath.Join(dir, table+".gob")
}
