package graph

import "github.com/kgraph-dev/kgindex/internal/rangeintern"

// ConsolidatedRelationship is the in-memory edge record produced by
// analyzers (C3/C4) and consumed by the mapper (C5). It carries both
// endpoints' file paths rather than integer IDs — those are assigned
// later, once every node across the whole project is known — plus the
// interned source/target ranges the edge is anchored to.
type ConsolidatedRelationship struct {
	SourceFilePath string
	TargetFilePath string
	Type           RelationshipType
	SourceRange    *rangeintern.Range
	TargetRange    *rangeintern.Range
}

// DirToDir builds a DirContainsDir edge. Directory containment carries no
// byte range, so both endpoints use the empty range.
func DirToDir(parentDirPath, childDirPath string) ConsolidatedRelationship {
	return ConsolidatedRelationship{
		SourceFilePath: parentDirPath,
		TargetFilePath: childDirPath,
		Type:           DirContainsDir,
		SourceRange:    &rangeintern.Empty,
		TargetRange:    &rangeintern.Empty,
	}
}

// DirToFile builds a DirContainsFile edge.
func DirToFile(dirPath, filePath string) ConsolidatedRelationship {
	return ConsolidatedRelationship{
		SourceFilePath: dirPath,
		TargetFilePath: filePath,
		Type:           DirContainsFile,
		SourceRange:    &rangeintern.Empty,
		TargetRange:    &rangeintern.Empty,
	}
}

// FileToDefinition builds a FileDefines edge for a top-level definition.
// Per the P2 invariant, FileDefines edges always carry an empty source
// range — the source is the file itself, not a token within it.
func FileToDefinition(filePath, targetFilePath string, targetRange *rangeintern.Range) ConsolidatedRelationship {
	return ConsolidatedRelationship{
		SourceFilePath: filePath,
		TargetFilePath: targetFilePath,
		Type:           FileDefines,
		SourceRange:    &rangeintern.Empty,
		TargetRange:    targetRange,
	}
}

// FileToImport builds a FileImports edge.
func FileToImport(filePath, targetFilePath string, targetRange *rangeintern.Range) ConsolidatedRelationship {
	return ConsolidatedRelationship{
		SourceFilePath: filePath,
		TargetFilePath: targetFilePath,
		Type:           FileImports,
		SourceRange:    &rangeintern.Empty,
		TargetRange:    targetRange,
	}
}

// DefinitionToDefinition builds a definition-hierarchy or call edge
// (ClassToMethod, Calls, AmbiguouslyCalls, ...) between two definitions.
// Same-file scoping for hierarchy edges is enforced by the caller (C3):
// this constructor does not itself check sourceFilePath == targetFilePath
// because Calls/AmbiguouslyCalls edges are legitimately cross-file.
func DefinitionToDefinition(sourceFilePath, targetFilePath string, relType RelationshipType, sourceRange, targetRange *rangeintern.Range) ConsolidatedRelationship {
	return ConsolidatedRelationship{
		SourceFilePath: sourceFilePath,
		TargetFilePath: targetFilePath,
		Type:           relType,
		SourceRange:    sourceRange,
		TargetRange:    targetRange,
	}
}

// DefinitionToImport builds a DefinesImportedSymbol edge — a definition
// (e.g. a re-export statement nested in a namespace) that itself
// introduces an imported symbol.
func DefinitionToImport(sourceFilePath, targetFilePath string, sourceRange, targetRange *rangeintern.Range) ConsolidatedRelationship {
	return ConsolidatedRelationship{
		SourceFilePath: sourceFilePath,
		TargetFilePath: targetFilePath,
		Type:           DefinesImportedSymbol,
		SourceRange:    sourceRange,
		TargetRange:    targetRange,
	}
}
