package graphdb

import (
	"bytes"
	"encoding/gob"

	"go.etcd.io/bbolt"
)

// GetFile decodes the FileRow stored under id in db, if any. Used by the
// read-only graph lookup endpoints.
func GetFile(db *bbolt.DB, id uint32) (FileRow, bool, error) {
	var row FileRow
	found := false
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(TableFiles))
		if b == nil {
			return nil
		}
		data := b.Get(idKey(id))
		if data == nil {
			return nil
		}
		found = true
		return gob.NewDecoder(bytes.NewReader(data)).Decode(&row)
	})
	return row, found, err
}

// GetDefinition decodes the DefinitionRow stored under id in db, if any.
func GetDefinition(db *bbolt.DB, id uint32) (DefinitionRow, bool, error) {
	var row DefinitionRow
	found := false
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(TableDefinitions))
		if b == nil {
			return nil
		}
		data := b.Get(idKey(id))
		if data == nil {
			return nil
		}
		found = true
		return gob.NewDecoder(bytes.NewReader(data)).Decode(&row)
	})
	return row, found, err
}

// CountRows returns how many rows are stored in table — used by tests to
// check what a load wrote; the executor's statistics do not call it.
func CountRows(db *bbolt.DB, table string) (int, error) {
	count := 0
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// RelationshipsTo returns every EdgeRow in table whose Target equals id —
// the reverse direction of RelationshipsFrom. Used by the references and
// import-usage lookups, which both ask "what points at this node" rather
// than "what does this node point at".
func RelationshipsTo(db *bbolt.DB, table string, id uint32) ([]EdgeRow, error) {
	var edges []EdgeRow
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var row EdgeRow
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&row); err != nil {
				return err
			}
			if row.Target == id {
				edges = append(edges, row)
			}
			return nil
		})
	})
	return edges, err
}

// RelationshipsFrom returns every EdgeRow in table whose Source equals id.
// Tables are small enough per project that a full bucket scan is
// acceptable; a secondary source-index is not part of this scope.
func RelationshipsFrom(db *bbolt.DB, table string, id uint32) ([]EdgeRow, error) {
	var edges []EdgeRow
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var row EdgeRow
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&row); err != nil {
				return err
			}
			if row.Source == id {
				edges = append(edges, row)
			}
			return nil
		})
	})
	return edges, err
}
