package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

func TestNodeIdGenerator_CountersAreIndependentAndDense(t *testing.T) {
	gen := NewNodeIdGenerator()

	d1 := gen.RegisterDirectory("a")
	d2 := gen.RegisterDirectory("b")
	f1 := gen.RegisterFile("a/x.go")

	assert.Equal(t, uint32(1), d1)
	assert.Equal(t, uint32(2), d2)
	// File counter starts independently at 1, same as directory's.
	assert.Equal(t, uint32(1), f1)
}

func TestNodeIdGenerator_RegisterIsIdempotent(t *testing.T) {
	gen := NewNodeIdGenerator()

	first := gen.RegisterFile("a/x.go")
	second := gen.RegisterFile("a/x.go")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.FileCount())
}

func TestMapGraphData_ResolvesKnownEdges(t *testing.T) {
	table := rangeintern.New()
	defRange := table.Intern(rangeintern.Range{StartByte: 10, EndByte: 20})

	data := graph.NewData()
	data.Files = append(data.Files, graph.FileNode{Path: "main.go"})
	data.DefinitionMap[graph.DefinitionKey{FilePath: "main.go", FQN: "main.Run"}] = &graph.DefinitionNode{
		FQN: "main.Run", FilePath: "main.go", Range: defRange,
	}
	data.AddRelationship(graph.FileToDefinition("main.go", "main.go", defRange))

	mapped, gen, counts := MapGraphData(data)

	require.Len(t, mapped.FileToDefinition, 1)
	edge := mapped.FileToDefinition[0]
	fileID, _ := gen.LookupFile("main.go")
	defID, _ := gen.LookupDefinition("main.go", defRange)
	assert.Equal(t, fileID, edge.Source)
	assert.Equal(t, defID, edge.Target)
	assert.Equal(t, uint8(graph.FileDefines), edge.KindID)

	assert.Equal(t, 0, counts.DirNotFound)
	assert.Equal(t, 0, counts.FileNotFound)
	assert.Equal(t, 0, counts.DefNotFound)
	assert.Equal(t, 0, counts.ImportNotFound)
}

func TestMapGraphData_DropsDanglingEdgeWithoutAborting(t *testing.T) {
	table := rangeintern.New()
	ghostRange := table.Intern(rangeintern.Range{StartByte: 99, EndByte: 120})

	data := graph.NewData()
	data.Files = append(data.Files, graph.FileNode{Path: "main.go"})
	// No definition registered for main.go at this range — edge is dangling.
	data.AddRelationship(graph.FileToDefinition("main.go", "main.go", ghostRange))

	mapped, _, counts := MapGraphData(data)

	assert.Empty(t, mapped.FileToDefinition)
	assert.Equal(t, 1, counts.DefNotFound)
}

func TestMapGraphData_CountsEveryDroppedEdgeBeyondSampleLimit(t *testing.T) {
	table := rangeintern.New()

	data := graph.NewData()
	data.Files = append(data.Files, graph.FileNode{Path: "main.go"})
	// Seven dangling edges of the same kind — more than the sampler's
	// five-per-reason log limit, to confirm DanglingCounts still tallies
	// every drop rather than stopping once the sampler stops logging.
	for i := 0; i < 7; i++ {
		r := table.Intern(rangeintern.Range{StartByte: uint32(100 + i), EndByte: uint32(110 + i)})
		data.AddRelationship(graph.FileToDefinition("main.go", "main.go", r))
	}

	mapped, _, counts := MapGraphData(data)

	assert.Empty(t, mapped.FileToDefinition)
	assert.Equal(t, 7, counts.DefNotFound)
}

func TestMapGraphData_CallsFromFileScopeUsesFileSource(t *testing.T) {
	data := graph.NewData()
	data.Files = append(data.Files, graph.FileNode{Path: "main.go"})
	table := rangeintern.New()
	targetRange := table.Intern(rangeintern.Range{StartByte: 1, EndByte: 5})
	data.DefinitionMap[graph.DefinitionKey{FilePath: "main.go", FQN: "main.Helper"}] = &graph.DefinitionNode{
		FQN: "main.Helper", FilePath: "main.go", Range: targetRange,
	}

	rel := graph.DefinitionToDefinition("main.go", "main.go", graph.Calls, &rangeintern.Empty, targetRange)
	data.AddRelationship(rel)

	mapped, _, counts := MapGraphData(data)

	require.Len(t, mapped.FileToDefinition, 1)
	assert.Equal(t, 0, counts.FileNotFound)
}
