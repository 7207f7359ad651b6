package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

func defAt(table *rangeintern.Table, filePath, fqn, name string, start, end uint32) (graph.DefinitionKey, *graph.DefinitionNode) {
	r := table.Intern(rangeintern.Range{StartByte: start, EndByte: end})
	return graph.DefinitionKey{FilePath: filePath, FQN: fqn}, &graph.DefinitionNode{
		FQN: fqn, Name: name, FilePath: filePath, Range: r,
	}
}

func TestResolve_PrefersSameFileUniqueMatch(t *testing.T) {
	table := rangeintern.New()
	data := graph.NewData()

	k1, d1 := defAt(table, "a.go", "a.Helper", "Helper", 0, 10)
	data.AddDefinition(k1, d1)
	k2, d2 := defAt(table, "b.go", "b.Helper", "Helper", 0, 10)
	data.AddDefinition(k2, d2)

	r := New(data)

	file, targetRange, ambiguous, ok := r.Resolve("a.go", "Helper", 5)
	require.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "a.go", file)
	assert.Equal(t, d1.Range, targetRange)
}

func TestResolve_GlobalUniqueMatch(t *testing.T) {
	table := rangeintern.New()
	data := graph.NewData()
	k1, d1 := defAt(table, "lib.go", "lib.Parse", "Parse", 0, 10)
	data.AddDefinition(k1, d1)

	r := New(data)

	file, _, ambiguous, ok := r.Resolve("main.go", "Parse", 0)
	require.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "lib.go", file)
}

func TestResolve_MultipleGlobalCandidatesIsAmbiguous(t *testing.T) {
	table := rangeintern.New()
	data := graph.NewData()
	k1, d1 := defAt(table, "a.go", "a.Run", "Run", 0, 10)
	data.AddDefinition(k1, d1)
	k2, d2 := defAt(table, "b.go", "b.Run", "Run", 0, 10)
	data.AddDefinition(k2, d2)

	r := New(data)

	_, _, ambiguous, ok := r.Resolve("c.go", "Run", 0)
	require.True(t, ok)
	assert.True(t, ambiguous)
}

func TestResolve_NoCandidatesReturnsFalse(t *testing.T) {
	data := graph.NewData()
	r := New(data)

	_, _, _, ok := r.Resolve("a.go", "Missing", 0)
	assert.False(t, ok)
}
