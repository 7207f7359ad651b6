package mapper

import (
	"github.com/kgraph-dev/kgindex/internal/debug"
	kgerrors "github.com/kgraph-dev/kgindex/internal/errors"
	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

// edgeDropSampleLimit is spec.md §7's "first five shown, rest counted"
// rule for edge-drop warnings.
const edgeDropSampleLimit = 5

// Edge is a relationship with both endpoints resolved to dense integer
// IDs, ready to be written to a C6 columnar relationship file.
type Edge struct {
	Source uint32
	Target uint32
	KindID uint8
}

// MappedGraph groups resolved edges by their endpoints' node kinds. This
// refines SPEC_FULL.md's four named buckets (dir→dir, dir→file,
// file→definition, definition→definition) into the exact (from_kind,
// to_kind) pairs the bulk loader (C6) needs, since C6 already splits
// polymorphic relationship tables per (from,to) pair — doing that split
// here rather than re-deriving it in C6 keeps the two components' ideas
// of "a relationship table" identical.
type MappedGraph struct {
	DirToDir               []Edge
	DirToFile              []Edge
	FileToDefinition       []Edge
	FileToImport           []Edge
	DefinitionToDefinition []Edge
	DefinitionToImport     []Edge
}

// DanglingCounts tallies edges dropped because one endpoint was never
// registered as a node — expected for generated or excluded files, never
// a reason to abort the run.
type DanglingCounts struct {
	DirNotFound    int
	FileNotFound   int
	DefNotFound    int
	ImportNotFound int
}

type nodeKind uint8

const (
	kindDirectory nodeKind = iota
	kindFile
	kindDefinition
	kindImportedSymbol
)

// endpointKinds returns the (source, target) node kinds implied by rel's
// RelationshipType. Calls/AmbiguouslyCalls are the one ambiguous case: the
// caller may be a top-level file statement (empty source range) rather
// than a definition.
func endpointKinds(rel graph.ConsolidatedRelationship) (source, target nodeKind) {
	switch rel.Type {
	case graph.DirContainsDir:
		return kindDirectory, kindDirectory
	case graph.DirContainsFile:
		return kindDirectory, kindFile
	case graph.FileDefines:
		return kindFile, kindDefinition
	case graph.FileImports:
		return kindFile, kindImportedSymbol
	case graph.DefinesImportedSymbol:
		return kindDefinition, kindImportedSymbol
	case graph.Calls, graph.AmbiguouslyCalls:
		if rel.SourceRange == nil || rel.SourceRange.IsEmpty() {
			return kindFile, kindDefinition
		}
		return kindDefinition, kindDefinition
	default:
		// Definition-hierarchy edges (ClassToMethod, MethodToLambda, ...)
		// are always same-file definition-to-definition.
		return kindDefinition, kindDefinition
	}
}

// MapGraphData performs C5's two passes: assign IDs to every node in
// data, then resolve every edge's endpoints to those IDs, dropping edges
// whose endpoint was never registered.
func MapGraphData(data *graph.Data) (*MappedGraph, *NodeIdGenerator, *DanglingCounts) {
	gen := NewNodeIdGenerator()

	for _, dir := range data.Directories {
		gen.RegisterDirectory(dir.Path)
	}
	for _, f := range data.Files {
		gen.RegisterFile(f.Path)
	}
	for _, def := range data.DefinitionMap {
		gen.RegisterDefinition(def.FilePath, def.Range)
	}
	for _, sym := range data.ImportedSymbolMap {
		gen.RegisterImportedSymbol(sym.FilePath, sym.Location)
	}

	mapped := &MappedGraph{}
	counts := &DanglingCounts{}
	mapping := graph.NewRelationshipTypeMapping()
	sampler := kgerrors.NewEdgeDropSampler(edgeDropSampleLimit)

	for _, rel := range data.Relationships {
		srcKind, tgtKind := endpointKinds(rel)

		srcID, srcOK := lookupBy(gen, srcKind, rel.SourceFilePath, rel.SourceRange)
		if !srcOK {
			counts.bump(srcKind)
			if n, log := sampler.Record("source_" + kindName(srcKind)); log {
				debug.LogGraph("dropping edge: source %s not registered (path=%s) [%d]\n", kindName(srcKind), rel.SourceFilePath, n)
			}
			continue
		}

		tgtID, tgtOK := lookupBy(gen, tgtKind, rel.TargetFilePath, rel.TargetRange)
		if !tgtOK {
			counts.bump(tgtKind)
			if n, log := sampler.Record("target_" + kindName(tgtKind)); log {
				debug.LogGraph("dropping edge: target %s not registered (path=%s) [%d]\n", kindName(tgtKind), rel.TargetFilePath, n)
			}
			continue
		}

		edge := Edge{Source: srcID, Target: tgtID, KindID: mapping.GetTypeID(rel.Type)}
		appendEdge(mapped, srcKind, tgtKind, edge)
	}

	if dropped := sampler.Counts(); len(dropped) > 0 {
		total := 0
		for _, n := range dropped {
			total += n
		}
		debug.LogGraph("mapper: %d edges dropped across %d reasons (first %d per reason logged)\n", total, len(dropped), edgeDropSampleLimit)
	}

	return mapped, gen, counts
}

func lookupBy(gen *NodeIdGenerator, kind nodeKind, path string, r *rangeintern.Range) (uint32, bool) {
	switch kind {
	case kindDirectory:
		return gen.LookupDirectory(path)
	case kindFile:
		return gen.LookupFile(path)
	case kindDefinition:
		return gen.LookupDefinition(path, r)
	case kindImportedSymbol:
		return gen.LookupImportedSymbol(path, r)
	}
	return 0, false
}

func appendEdge(mapped *MappedGraph, srcKind, tgtKind nodeKind, edge Edge) {
	switch {
	case srcKind == kindDirectory && tgtKind == kindDirectory:
		mapped.DirToDir = append(mapped.DirToDir, edge)
	case srcKind == kindDirectory && tgtKind == kindFile:
		mapped.DirToFile = append(mapped.DirToFile, edge)
	case srcKind == kindFile && tgtKind == kindDefinition:
		mapped.FileToDefinition = append(mapped.FileToDefinition, edge)
	case srcKind == kindFile && tgtKind == kindImportedSymbol:
		mapped.FileToImport = append(mapped.FileToImport, edge)
	case srcKind == kindDefinition && tgtKind == kindImportedSymbol:
		mapped.DefinitionToImport = append(mapped.DefinitionToImport, edge)
	default:
		mapped.DefinitionToDefinition = append(mapped.DefinitionToDefinition, edge)
	}
}

func (c *DanglingCounts) bump(kind nodeKind) {
	switch kind {
	case kindDirectory:
		c.DirNotFound++
	case kindFile:
		c.FileNotFound++
	case kindDefinition:
		c.DefNotFound++
	case kindImportedSymbol:
		c.ImportNotFound++
	}
}

func kindName(kind nodeKind) string {
	switch kind {
	case kindDirectory:
		return "directory"
	case kindFile:
		return "file"
	case kindDefinition:
		return "definition"
	case kindImportedSymbol:
		return "imported_symbol"
	default:
		return "unknown"
	}
}
