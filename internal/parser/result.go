package parser

import "github.com/kgraph-dev/kgindex/internal/rangeintern"

// RawDefinition is one definition capture straight off the query match,
// before C3 turns it into a graph.DefinitionNode. Kind is the raw,
// language-specific string (e.g. Go's "struct", Java's "enum_entry") that
// graph.DefinitionType.Simplify already knows how to collapse.
type RawDefinition struct {
	Kind string
	Name string
	Range rangeintern.Range

	// ReceiverText is the raw receiver-parameter text for a Go method
	// capture (e.g. "(s *Something)"), empty for every other language and
	// every non-method definition. The analyzer (C3) parses the receiver
	// type name out of this text since Go methods, unlike every other
	// supported language, are not lexically nested inside their type.
	ReceiverText string
}

// RawImport is one import/use capture. Path is the raw string literal
// content (quotes stripped) when the grammar captures one; for
// import-declaration forms with no literal (e.g. Java's
// `import_declaration`), Path is the statement's source text.
type RawImport struct {
	Path  string
	Range rangeintern.Range
}

// RawReference is one call/invocation capture. Callee is the identifier
// or member name text the call targets; C4 resolves it against the
// definition map and scope state.
type RawReference struct {
	Callee string
	Range  rangeintern.Range
}

// FileProcessingResult is the parse phase's output for one file: every
// definition, import and call-site capture found, grouped the way the
// query reports them (no resolution yet — that is C3/C4's job).
type FileProcessingResult struct {
	Definitions []RawDefinition
	Imports     []RawImport
	References  []RawReference
}
