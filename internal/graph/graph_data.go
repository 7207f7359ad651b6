package graph

// Data is the full in-memory result of one executor run's parse+analyze
// phases: every node discovered plus every relationship emitted, keyed
// the way C3/C4 naturally produce them, before C5 assigns integer IDs.
//
// DefinitionMap and ImportedSymbolMap are exported because C3's final
// add_definition_relationships pass and C4's resolver both need random
// access by (fqn, file_path) — not just the flat Relationships slice.
type Data struct {
	Directories []DirectoryNode
	Files       []FileNode

	// DefinitionMap is keyed by (file_path, fqn); DefinitionNode identity
	// for graph purposes is (file_path, range), but analyzers look
	// definitions up by name while resolving hierarchy and references.
	DefinitionMap map[DefinitionKey]*DefinitionNode

	ImportedSymbolMap map[ImportKey]*ImportedSymbolNode

	Relationships []ConsolidatedRelationship
}

// DefinitionKey identifies a definition for lookup during hierarchy and
// reference resolution.
type DefinitionKey struct {
	FilePath string
	FQN      string
}

// ImportKey identifies an imported symbol the same way.
type ImportKey struct {
	FilePath string
	Path     string
}

// NewData returns an empty Data ready for one executor run.
func NewData() *Data {
	return &Data{
		DefinitionMap:     make(map[DefinitionKey]*DefinitionNode),
		ImportedSymbolMap: make(map[ImportKey]*ImportedSymbolNode),
	}
}

// AddDefinition registers def in the definition map under key. A
// caller that also needs a FileDefines edge builds one separately with
// FileToDefinition — registration and edge emission are independent so
// C3 can register scope-only definitions (locals, parameters) without
// emitting a graph edge for them.
func (d *Data) AddDefinition(key DefinitionKey, def *DefinitionNode) {
	d.DefinitionMap[key] = def
}

// AddImportedSymbol registers sym in the imported-symbol map.
func (d *Data) AddImportedSymbol(key ImportKey, sym *ImportedSymbolNode) {
	d.ImportedSymbolMap[key] = sym
}

// AddRelationship appends a relationship to the run's edge list.
func (d *Data) AddRelationship(rel ConsolidatedRelationship) {
	d.Relationships = append(d.Relationships, rel)
}
