// Package bulkload turns one executor run's graph.Data and
// mapper.MappedGraph into the columnar files the graph engine's bulk
// loader (internal/graphdb) reads back: one file per node table, one per
// resolved (from_kind,to_kind) relationship bucket. Splitting "build the
// columns" from "load the columns into the engine" mirrors the teacher's
// own pipeline/ vs storage split and keeps the encode format (gob) out of
// the engine package entirely — graphdb only needs to know the row shapes
// in internal/graphdb/records.go.
package bulkload

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/graphdb"
	"github.com/kgraph-dev/kgindex/internal/mapper"
)

// columnFile names the file within dir holding table's rows. The name
// matches the bbolt bucket name 1:1 so Load doesn't need a lookup table.
func columnFile(dir, table string) string {
	return filepath.Join(dir, table+".gob")
}

// WriteColumns serializes every node and edge bucket to dir, one gob file
// per table. Empty buckets are skipped — their absence is exactly the
// "no rows for this table" signal Load treats as a no-op, not an error.
func WriteColumns(dir string, data *graph.Data, gen *mapper.NodeIdGenerator, mapped *mapper.MappedGraph) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bulkload: create column dir: %w", err)
	}

	if err := writeDirectories(dir, data, gen); err != nil {
		return err
	}
	if err := writeFiles(dir, data, gen); err != nil {
		return err
	}
	if err := writeDefinitions(dir, data, gen); err != nil {
		return err
	}
	if err := writeImportedSymbols(dir, data, gen); err != nil {
		return err
	}

	edgeTables := []struct {
		table string
		rows  []mapper.Edge
	}{
		{graphdb.TableDirToDir, mapped.DirToDir},
		{graphdb.TableDirToFile, mapped.DirToFile},
		{graphdb.TableFileToDefinition, mapped.FileToDefinition},
		{graphdb.TableFileToImport, mapped.FileToImport},
		{graphdb.TableDefinitionToDefinition, mapped.DefinitionToDefinition},
		{graphdb.TableDefinitionToImport, mapped.DefinitionToImport},
	}
	for _, et := range edgeTables {
		if len(et.rows) == 0 {
			continue
		}
		rows := make([]graphdb.EdgeRow, len(et.rows))
		for i, e := range et.rows {
			rows[i] = graphdb.EdgeRow{Source: e.Source, Target: e.Target, KindID: e.KindID}
		}
		if err := writeGob(columnFile(dir, et.table), rows); err != nil {
			return err
		}
	}
	return nil
}

func writeDirectories(dir string, data *graph.Data, gen *mapper.NodeIdGenerator) error {
	if len(data.Directories) == 0 {
		return nil
	}
	rows := make([]graphdb.DirectoryRow, 0, len(data.Directories))
	for _, d := range data.Directories {
		id, ok := gen.LookupDirectory(d.Path)
		if !ok {
			continue
		}
		rows = append(rows, graphdb.DirectoryRow{
			ID: id, Path: d.Path, AbsolutePath: d.AbsolutePath,
			RepositoryName: d.RepositoryName, Name: d.Name,
		})
	}
	return writeGob(columnFile(dir, graphdb.TableDirectories), rows)
}

func writeFiles(dir string, data *graph.Data, gen *mapper.NodeIdGenerator) error {
	if len(data.Files) == 0 {
		return nil
	}
	rows := make([]graphdb.FileRow, 0, len(data.Files))
	for _, f := range data.Files {
		id, ok := gen.LookupFile(f.Path)
		if !ok {
			continue
		}
		rows = append(rows, graphdb.FileRow{
			ID: id, Path: f.Path, AbsolutePath: f.AbsolutePath,
			Language: string(f.Language), RepositoryName: f.RepositoryName,
			Extension: f.Extension, Name: f.Name,
		})
	}
	return writeGob(columnFile(dir, graphdb.TableFiles), rows)
}

func writeDefinitions(dir string, data *graph.Data, gen *mapper.NodeIdGenerator) error {
	if len(data.DefinitionMap) == 0 {
		return nil
	}
	rows := make([]graphdb.DefinitionRow, 0, len(data.DefinitionMap))
	for _, def := range data.DefinitionMap {
		id, ok := gen.LookupDefinition(def.FilePath, def.Range)
		if !ok {
			continue
		}
		row := graphdb.DefinitionRow{
			ID: id, FQN: def.FQN, Name: def.Name,
			Language: string(def.DefinitionType.Language), RawType: def.DefinitionType.Raw,
			FilePath: def.FilePath,
		}
		if def.Range != nil {
			row.StartByte, row.EndByte = def.Range.StartByte, def.Range.EndByte
			row.StartLine, row.StartCol = def.Range.StartLine, def.Range.StartCol
			row.EndLine, row.EndCol = def.Range.EndLine, def.Range.EndCol
		}
		rows = append(rows, row)
	}
	return writeGob(columnFile(dir, graphdb.TableDefinitions), rows)
}

func writeImportedSymbols(dir string, data *graph.Data, gen *mapper.NodeIdGenerator) error {
	if len(data.ImportedSymbolMap) == 0 {
		return nil
	}
	rows := make([]graphdb.ImportedSymbolRow, 0, len(data.ImportedSymbolMap))
	for _, sym := range data.ImportedSymbolMap {
		id, ok := gen.LookupImportedSymbol(sym.FilePath, sym.Location)
		if !ok {
			continue
		}
		row := graphdb.ImportedSymbolRow{
			ID: id, ImportType: sym.ImportType, ImportPath: sym.ImportPath,
			FilePath: sym.FilePath,
		}
		if sym.Identifier != nil {
			row.IdentifierName = sym.Identifier.Name
			row.IdentifierAlias = sym.Identifier.Alias
		}
		if sym.Location != nil {
			row.StartByte, row.EndByte = sym.Location.StartByte, sym.Location.EndByte
			row.StartLine, row.StartCol = sym.Location.StartLine, sym.Location.StartCol
			row.EndLine, row.EndCol = sym.Location.EndLine, sym.Location.EndCol
		}
		rows = append(rows, row)
	}
	return writeGob(columnFile(dir, graphdb.TableImportedSymbols), rows)
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bulkload: create %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("bulkload: encode %s: %w", path, err)
	}
	return nil
}
