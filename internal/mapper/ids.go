// Package mapper implements C5: assigning dense per-kind integer IDs to
// every node discovered during one executor run, and rewriting
// ConsolidatedRelationship edges to reference those IDs instead of file
// paths and ranges.
package mapper

import "github.com/kgraph-dev/kgindex/internal/rangeintern"

// definitionKey identifies a Definition or ImportedSymbol node for ID
// assignment — both kinds share the (file_path, start_byte, end_byte)
// identity shape per SPEC_FULL.md §3.
type definitionKey struct {
	filePath  string
	startByte uint32
	endByte   uint32
}

func keyFor(filePath string, r *rangeintern.Range) definitionKey {
	if r == nil {
		return definitionKey{filePath: filePath}
	}
	return definitionKey{filePath: filePath, startByte: r.StartByte, endByte: r.EndByte}
}

// NodeIdGenerator owns four independent, dense, 1-based counters — one
// per node kind. IDs never cross kind boundaries: a directory and a file
// can legitimately share the numeric value 1.
type NodeIdGenerator struct {
	dirIDs    map[string]uint32
	fileIDs   map[string]uint32
	defIDs    map[definitionKey]uint32
	importIDs map[definitionKey]uint32

	nextDir    uint32
	nextFile   uint32
	nextDef    uint32
	nextImport uint32
}

// NewNodeIdGenerator returns a generator with all four counters at 1.
func NewNodeIdGenerator() *NodeIdGenerator {
	return &NodeIdGenerator{
		dirIDs:     make(map[string]uint32),
		fileIDs:    make(map[string]uint32),
		defIDs:     make(map[definitionKey]uint32),
		importIDs:  make(map[definitionKey]uint32),
		nextDir:    1,
		nextFile:   1,
		nextDef:    1,
		nextImport: 1,
	}
}

// RegisterDirectory assigns (or returns the existing) ID for path.
func (g *NodeIdGenerator) RegisterDirectory(path string) uint32 {
	if id, ok := g.dirIDs[path]; ok {
		return id
	}
	id := g.nextDir
	g.nextDir++
	g.dirIDs[path] = id
	return id
}

// RegisterFile assigns (or returns the existing) ID for path.
func (g *NodeIdGenerator) RegisterFile(path string) uint32 {
	if id, ok := g.fileIDs[path]; ok {
		return id
	}
	id := g.nextFile
	g.nextFile++
	g.fileIDs[path] = id
	return id
}

// RegisterDefinition assigns (or returns the existing) ID for the
// definition identified by (filePath, r).
func (g *NodeIdGenerator) RegisterDefinition(filePath string, r *rangeintern.Range) uint32 {
	key := keyFor(filePath, r)
	if id, ok := g.defIDs[key]; ok {
		return id
	}
	id := g.nextDef
	g.nextDef++
	g.defIDs[key] = id
	return id
}

// RegisterImportedSymbol assigns (or returns the existing) ID for the
// imported symbol identified by (filePath, r).
func (g *NodeIdGenerator) RegisterImportedSymbol(filePath string, r *rangeintern.Range) uint32 {
	key := keyFor(filePath, r)
	if id, ok := g.importIDs[key]; ok {
		return id
	}
	id := g.nextImport
	g.nextImport++
	g.importIDs[key] = id
	return id
}

// LookupDirectory returns the ID previously assigned to path, if any.
// Unlike Register*, Lookup* never assigns — used during edge resolution
// (pass 2), where a miss means the edge's endpoint was never registered
// as a node and the edge must be dropped, not silently created.
func (g *NodeIdGenerator) LookupDirectory(path string) (uint32, bool) {
	id, ok := g.dirIDs[path]
	return id, ok
}

func (g *NodeIdGenerator) LookupFile(path string) (uint32, bool) {
	id, ok := g.fileIDs[path]
	return id, ok
}

func (g *NodeIdGenerator) LookupDefinition(filePath string, r *rangeintern.Range) (uint32, bool) {
	id, ok := g.defIDs[keyFor(filePath, r)]
	return id, ok
}

func (g *NodeIdGenerator) LookupImportedSymbol(filePath string, r *rangeintern.Range) (uint32, bool) {
	id, ok := g.importIDs[keyFor(filePath, r)]
	return id, ok
}

// DirectoryCount, FileCount, DefinitionCount and ImportedSymbolCount
// report how many distinct nodes of each kind have been registered. The
// executor's statistics (C7) are counted from graph.Data, not from these.
func (g *NodeIdGenerator) DirectoryCount() int      { return len(g.dirIDs) }
func (g *NodeIdGenerator) FileCount() int           { return len(g.fileIDs) }
func (g *NodeIdGenerator) DefinitionCount() int     { return len(g.defIDs) }
func (g *NodeIdGenerator) ImportedSymbolCount() int { return len(g.importIDs) }
