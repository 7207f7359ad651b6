// Package graphdb is the embedded, key-value-backed property graph engine
// SPEC_FULL.md §4.6′ resolves the "is the graph engine embedded or
// external" Open Question in favor of: an embedded go.etcd.io/bbolt
// database, one file per project, with one bucket ("table") per node kind
// and per resolved relationship bucket from C5.
package graphdb

import "go.etcd.io/bbolt"

// Node table names, one bucket per node kind.
const (
	TableDirectories     = "nodes.directories"
	TableFiles           = "nodes.files"
	TableDefinitions     = "nodes.definitions"
	TableImportedSymbols = "nodes.imported_symbols"
)

// Relationship table names, one bucket per (source_kind, target_kind)
// pair C5 resolves edges into.
const (
	TableDirToDir               = "rels.dir_to_dir"
	TableDirToFile              = "rels.dir_to_file"
	TableFileToDefinition       = "rels.file_to_definition"
	TableFileToImport           = "rels.file_to_import"
	TableDefinitionToDefinition = "rels.definition_to_definition"
	TableDefinitionToImport     = "rels.definition_to_import"
)

// AllTables lists every table EnsureSchema guarantees exists.
var AllTables = []string{
	TableDirectories,
	TableFiles,
	TableDefinitions,
	TableImportedSymbols,
	TableDirToDir,
	TableDirToFile,
	TableFileToDefinition,
	TableFileToImport,
	TableDefinitionToDefinition,
	TableDefinitionToImport,
}

// EnsureSchema checks for the presence of every table in AllTables and,
// if any is missing, creates all of them in one transaction. bbolt's
// CreateBucketIfNotExists is itself idempotent, so a second call against
// an already-initialized database is a cheap no-op rather than an error —
// relationship "tables" with no rows yet (e.g. a project with no Kotlin
// code) still get created; their noop-ness shows up as an empty bucket,
// never a missing one.
func EnsureSchema(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, table := range AllTables {
			if _, err := tx.CreateBucketIfNotExists([]byte(table)); err != nil {
				return err
			}
		}
		return nil
	})
}
