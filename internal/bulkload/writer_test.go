package bulkload

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/kgraph-dev/kgindex/internal/graph"
	"github.com/kgraph-dev/kgindex/internal/graphdb"
	"github.com/kgraph-dev/kgindex/internal/mapper"
	"github.com/kgraph-dev/kgindex/internal/rangeintern"
)

func TestWriteColumns_ThenLoad_RoundTrips(t *testing.T) {
	table := rangeintern.New()
	defRange := table.Intern(rangeintern.Range{StartByte: 10, EndByte: 30, EndLine: 1})

	data := graph.NewData()
	data.Directories = append(data.Directories, graph.DirectoryNode{Path: "cmd", Name: "cmd"})
	data.Files = append(data.Files, graph.FileNode{Path: "cmd/main.go", Language: graph.LanguageGo, Name: "main.go"})
	data.DefinitionMap[graph.DefinitionKey{FilePath: "cmd/main.go", FQN: "main.Run"}] = &graph.DefinitionNode{
		FQN: "main.Run", Name: "Run", FilePath: "cmd/main.go", Range: defRange,
		DefinitionType: graph.DefinitionType{Language: graph.LanguageGo, Raw: "function"},
	}
	data.AddRelationship(graph.DirToFile("cmd", "cmd/main.go"))
	data.AddRelationship(graph.FileToDefinition("cmd/main.go", "cmd/main.go", defRange))

	mapped, gen, counts := mapper.MapGraphData(data)
	require.Equal(t, 0, counts.DirNotFound+counts.FileNotFound+counts.DefNotFound+counts.ImportNotFound)

	columnDir := t.TempDir()
	require.NoError(t, WriteColumns(columnDir, data, gen, mapped))

	dbPath := filepath.Join(t.TempDir(), "graph.db")
	db, err := bbolt.Open(dbPath, 0o644, nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, graphdb.EnsureSchema(db))
	require.NoError(t, graphdb.Load(db, columnDir))

	fileCount, err := graphdb.CountRows(db, graphdb.TableFiles)
	require.NoError(t, err)
	assert.Equal(t, 1, fileCount)

	defID, ok := gen.LookupDefinition("cmd/main.go", defRange)
	require.True(t, ok)
	row, found, err := graphdb.GetDefinition(db, defID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "main.Run", row.FQN)

	fileID, ok := gen.LookupFile("cmd/main.go")
	require.True(t, ok)
	fileEdges, err := graphdb.RelationshipsFrom(db, graphdb.TableFileToDefinition, fileID)
	require.NoError(t, err)
	require.Len(t, fileEdges, 1)
	assert.Equal(t, defID, fileEdges[0].Target)
}

func TestWriteColumns_SkipsEmptyEdgeBuckets(t *testing.T) {
	data := graph.NewData()
	data.Files = append(data.Files, graph.FileNode{Path: "a.go"})
	mapped, gen, _ := mapper.MapGraphData(data)

	dir := t.TempDir()
	require.NoError(t, WriteColumns(dir, data, gen, mapped))

	dbPath := filepath.Join(t.TempDir(), "graph.db")
	db, err := bbolt.Open(dbPath, 0o644, nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, graphdb.EnsureSchema(db))
	require.NoError(t, graphdb.Load(db, dir))

	count, err := graphdb.CountRows(db, graphdb.TableFileToDefinition)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
