// Package analyzer implements C3: turning one file's parser.FileProcessingResult
// into graph.Data entries. A single dispatch engine handles every
// supported language, driven by graph.DefinitionType.Simplify's per-language
// table rather than one bespoke struct per language — the "capability
// table" shape spec.md §9 recommends over a trait-per-language split.
package analyzer

import (
	"strconv"
	"strings"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/parser"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

// Resolver is C4's contract: given a call site, find the definition it
// targets. Defined here (not in package resolve) so analyzer never
// imports resolve — resolve imports analyzer's types instead, and the
// executor (C7) wires a concrete resolve.Resolver in through this
// interface.
type Resolver interface {
	Resolve(filePath string, calleeName string, atByte uint32) (targetFilePath string, targetRange *rangeintern.Range, ambiguous bool, ok bool)
}

// hierarchyLink records one parent→child definition relationship found
// while processing a file's definitions, consumed later by
// AddDefinitionRelationships once every file has been analyzed (cross-file
// definition edges are never emitted — same-file scoping is a hard
// requirement per spec.md §4.3).
type hierarchyLink struct {
	parent graph.DefinitionKey
	child  graph.DefinitionKey
}

// Analyzer accumulates cross-file state across one executor run: the
// range intern table (shared with C1) and the parent/child links
// discovered file by file, resolved into edges only at the very end.
type Analyzer struct {
	table     *rangeintern.Table
	hierarchy []hierarchyLink
}

// New returns an Analyzer that interns ranges into table.
func New(table *rangeintern.Table) *Analyzer {
	return &Analyzer{table: table}
}

// resolvedDef pairs a raw capture with its simplified kind and the
// definition-map key it will be registered under, so findParent can
// reason about the whole file's definitions at once.
type resolvedDef struct {
	raw  parser.RawDefinition
	key  graph.DefinitionKey
	kind graph.DefinitionKind
}

// ProcessDefinitions registers every definition parser.Parse found in
// filePath, synthesizes DefinitionNodes, and emits FileDefines edges for
// top-level definitions (those with no enclosing definition in the same
// file). Nested definitions (a method inside a class) get their edge from
// AddDefinitionRelationships instead.
func (a *Analyzer) ProcessDefinitions(lang graph.Language, filePath string, fpr *parser.FileProcessingResult, data *graph.Data) {
	if fpr == nil {
		return
	}

	defs := make([]resolvedDef, 0, len(fpr.Definitions))
	for _, raw := range fpr.Definitions {
		kind, ok := (graph.DefinitionType{Language: lang, Raw: raw.Kind}).Simplify()
		if !ok {
			// Unknown raw kind for this language: drop the definition
			// rather than guess its relationship-table behavior.
			continue
		}
		name := raw.Name
		if name == "" {
			name = syntheticName(raw)
		}
		defs = append(defs, resolvedDef{raw: raw, key: graph.DefinitionKey{FilePath: filePath, FQN: name}, kind: kind})
	}

	for i := range defs {
		parentIdx := a.findParent(lang, defs[i], defs)

		fqn := defs[i].key.FQN
		if parentIdx >= 0 {
			fqn = defs[parentIdx].key.FQN + "." + defs[i].key.FQN
			defs[i].key.FQN = fqn
		}

		r := a.table.Intern(defs[i].raw.Range)
		node := &graph.DefinitionNode{
			FQN:            fqn,
			Name:           defs[i].raw.Name,
			DefinitionType: graph.DefinitionType{Language: lang, Raw: defs[i].raw.Kind},
			Range:          r,
			FilePath:       filePath,
		}
		data.AddDefinition(defs[i].key, node)

		if parentIdx >= 0 {
			a.hierarchy = append(a.hierarchy, hierarchyLink{parent: defs[parentIdx].key, child: defs[i].key})
		} else {
			data.AddRelationship(graph.FileToDefinition(filePath, filePath, r))
		}
	}
}

// findParent locates the smallest enclosing definition for defs[i] among
// the other definitions in the same file. Go methods are a documented
// exception: they are declared outside their receiver type's body, so
// they are linked by receiver type name instead of range containment.
func (a *Analyzer) findParent(lang graph.Language, target resolvedDef, all []resolvedDef) int {
	if lang == graph.LanguageGo && target.raw.Kind == "method" && target.raw.ReceiverText != "" {
		receiverType := parseGoReceiverType(target.raw.ReceiverText)
		for i, d := range all {
			if d.raw.Kind == "struct" && d.key.FQN == receiverType {
				return i
			}
		}
		return -1
	}

	best := -1
	var bestWidth uint32
	for i, d := range all {
		if d.raw.Range == target.raw.Range {
			continue
		}
		if d.raw.Range.StartByte <= target.raw.Range.StartByte && d.raw.Range.EndByte >= target.raw.Range.EndByte {
			width := d.raw.Range.EndByte - d.raw.Range.StartByte
			if best == -1 || width < bestWidth {
				best, bestWidth = i, width
			}
		}
	}
	return best
}

// parseGoReceiverType extracts the receiver type name out of Go receiver
// parameter-list text, e.g. "(s *Something)" -> "Something", "(s Something)" -> "Something".
func parseGoReceiverType(receiverText string) string {
	s := strings.TrimSpace(receiverText)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	return strings.TrimPrefix(last, "*")
}

// syntheticName names an otherwise-anonymous definition (lambdas,
// closures) by its source position, so it still has a usable FQN.
func syntheticName(raw parser.RawDefinition) string {
	return raw.Kind + "@" + strconv.FormatUint(uint64(raw.Range.StartByte), 10)
}

// ProcessImports registers every import capture as an ImportedSymbolNode
// and emits a FileImports edge.
func (a *Analyzer) ProcessImports(lang graph.Language, filePath string, fpr *parser.FileProcessingResult, data *graph.Data) {
	if fpr == nil {
		return
	}
	for _, raw := range fpr.Imports {
		if raw.Path == "" {
			continue
		}
		r := a.table.Intern(raw.Range)
		sym := &graph.ImportedSymbolNode{
			ImportType: "import",
			ImportPath: raw.Path,
			Identifier: &graph.ImportIdentifier{Name: lastPathComponent(raw.Path)},
			Location:   r,
			FilePath:   filePath,
		}
		data.AddImportedSymbol(graph.ImportKey{FilePath: filePath, Path: raw.Path}, sym)
		data.AddRelationship(graph.FileToImport(filePath, filePath, r))
	}
}

func lastPathComponent(path string) string {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return path
	}
	last := parts[len(parts)-1]
	if idx := strings.LastIndex(last, "."); idx >= 0 {
		last = last[idx+1:]
	}
	return last
}

// ProcessReferences resolves each call capture via resolver and, on a
// match, emits a Calls or AmbiguouslyCalls edge. Unresolved calls (no
// candidate definition anywhere) are silently dropped, per spec.md §4.4's
// "or suppressed, at the analyzer's option".
func (a *Analyzer) ProcessReferences(lang graph.Language, filePath string, fpr *parser.FileProcessingResult, data *graph.Data, resolver Resolver) {
	if fpr == nil || resolver == nil {
		return
	}
	for _, raw := range fpr.References {
		if raw.Callee == "" {
			continue
		}
		targetFile, targetRange, ambiguous, ok := resolver.Resolve(filePath, raw.Callee, raw.Range.StartByte)
		if !ok {
			continue
		}
		relType := graph.Calls
		if ambiguous {
			relType = graph.AmbiguouslyCalls
		}
		sourceRange := a.table.Intern(raw.Range)
		data.AddRelationship(graph.DefinitionToDefinition(filePath, targetFile, relType, sourceRange, targetRange))
	}
}

// AddDefinitionRelationships walks every parent/child link discovered
// across all files processed this run and emits the corresponding
// definition-hierarchy edge, per the (parent_kind, child_kind) table in
// graph.DefinitionRelationship. Call this once, after every file's
// ProcessDefinitions has run.
func (a *Analyzer) AddDefinitionRelationships(data *graph.Data) {
	for _, link := range a.hierarchy {
		parent, ok := data.DefinitionMap[link.parent]
		if !ok {
			continue
		}
		child, ok := data.DefinitionMap[link.child]
		if !ok {
			continue
		}
		parentKind, ok := parent.DefinitionType.Simplify()
		if !ok {
			continue
		}
		childKind, ok := child.DefinitionType.Simplify()
		if !ok {
			continue
		}
		relType, ok := graph.DefinitionRelationship(parentKind, childKind)
		if !ok {
			continue
		}
		data.AddRelationship(graph.DefinitionToDefinition(parent.FilePath, child.FilePath, relType, parent.Range, child.Range))
	}
}
