package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/parser"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

func TestProcessDefinitions_TopLevelFunctionEmitsFileDefines(t *testing.T) {
	table := rangeintern.New()
	a := New(table)
	data := graph.NewData()

	fpr := &parser.FileProcessingResult{
		Definitions: []parser.RawDefinition{
			{Kind: "function", Name: "Run", Range: rangeintern.Range{StartByte: 0, EndByte: 20}},
		},
	}

	a.ProcessDefinitions(graph.LanguageGo, "main.go", fpr, data)

	def, ok := data.DefinitionMap[graph.DefinitionKey{FilePath: "main.go", FQN: "Run"}]
	require.True(t, ok)
	assert.Equal(t, "Run", def.Name)

	require.Len(t, data.Relationships, 1)
	assert.Equal(t, graph.FileDefines, data.Relationships[0].Type)
}

func TestProcessDefinitions_PythonMethodNestsUnderClass(t *testing.T) {
	table := rangeintern.New()
	a := New(table)
	data := graph.NewData()

	fpr := &parser.FileProcessingResult{
		Definitions: []parser.RawDefinition{
			{Kind: "class", Name: "Widget", Range: rangeintern.Range{StartByte: 0, EndByte: 100}},
			{Kind: "method", Name: "render", Range: rangeintern.Range{StartByte: 20, EndByte: 40}},
		},
	}

	a.ProcessDefinitions(graph.LanguagePython, "widget.py", fpr, data)
	a.AddDefinitionRelationships(data)

	_, ok := data.DefinitionMap[graph.DefinitionKey{FilePath: "widget.py", FQN: "Widget.render"}]
	require.True(t, ok, "expected nested FQN Widget.render")

	var sawClassToMethod bool
	for _, rel := range data.Relationships {
		if rel.Type == graph.ClassToMethod {
			sawClassToMethod = true
		}
	}
	assert.True(t, sawClassToMethod)

	// The nested method must not also get a FileDefines edge.
	var fileDefinesCount int
	for _, rel := range data.Relationships {
		if rel.Type == graph.FileDefines {
			fileDefinesCount++
		}
	}
	assert.Equal(t, 1, fileDefinesCount)
}

func TestProcessDefinitions_GoMethodLinksByReceiverType(t *testing.T) {
	table := rangeintern.New()
	a := New(table)
	data := graph.NewData()

	fpr := &parser.FileProcessingResult{
		Definitions: []parser.RawDefinition{
			{Kind: "struct", Name: "Widget", Range: rangeintern.Range{StartByte: 0, EndByte: 10}},
			{Kind: "method", Name: "Render", ReceiverText: "(w *Widget)", Range: rangeintern.Range{StartByte: 50, EndByte: 70}},
		},
	}

	a.ProcessDefinitions(graph.LanguageGo, "widget.go", fpr, data)
	a.AddDefinitionRelationships(data)

	_, ok := data.DefinitionMap[graph.DefinitionKey{FilePath: "widget.go", FQN: "Widget.Render"}]
	require.True(t, ok)
}

func TestProcessImports_RegistersSymbolAndEdge(t *testing.T) {
	table := rangeintern.New()
	a := New(table)
	data := graph.NewData()

	fpr := &parser.FileProcessingResult{
		Imports: []parser.RawImport{
			{Path: "fmt", Range: rangeintern.Range{StartByte: 0, EndByte: 10}},
		},
	}

	a.ProcessImports(graph.LanguageGo, "main.go", fpr, data)

	_, ok := data.ImportedSymbolMap[graph.ImportKey{FilePath: "main.go", Path: "fmt"}]
	require.True(t, ok)
	require.Len(t, data.Relationships, 1)
	assert.Equal(t, graph.FileImports, data.Relationships[0].Type)
}

type stubResolver struct {
	file      string
	r         *rangeintern.Range
	ambiguous bool
	ok        bool
}

func (s stubResolver) Resolve(string, string, uint32) (string, *rangeintern.Range, bool, bool) {
	return s.file, s.r, s.ambiguous, s.ok
}

func TestProcessReferences_EmitsCallsEdgeOnMatch(t *testing.T) {
	table := rangeintern.New()
	a := New(table)
	data := graph.NewData()
	targetRange := table.Intern(rangeintern.Range{StartByte: 5, EndByte: 15})

	fpr := &parser.FileProcessingResult{
		References: []parser.RawReference{
			{Callee: "Helper", Range: rangeintern.Range{StartByte: 30, EndByte: 36}},
		},
	}

	a.ProcessReferences(graph.LanguageGo, "main.go", fpr, data, stubResolver{file: "lib.go", r: targetRange, ok: true})

	require.Len(t, data.Relationships, 1)
	assert.Equal(t, graph.Calls, data.Relationships[0].Type)
}

func TestProcessReferences_DropsUnresolvedCall(t *testing.T) {
	table := rangeintern.New()
	a := New(table)
	data := graph.NewData()

	fpr := &parser.FileProcessingResult{
		References: []parser.RawReference{{Callee: "Unknown", Range: rangeintern.Range{StartByte: 0, EndByte: 5}}},
	}

	a.ProcessReferences(graph.LanguageGo, "main.go", fpr, data, stubResolver{ok: false})

	assert.Empty(t, data.Relationships)
}
