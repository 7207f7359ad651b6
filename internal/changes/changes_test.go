package changes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWatcherPaths_ExistingFileAndDir(t *testing.T) {
	root := t.TempDir()
	dirPath := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(dirPath, 0o755))
	filePath := filepath.Join(root, "sub", "main.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package sub\n"), 0o644))

	out := FromWatcherPaths(root, []string{dirPath, filePath})

	assert.Equal(t, []string{"sub"}, out.ChangedDirs)
	assert.Equal(t, []string{"sub/main.go"}, out.ChangedFiles)
	assert.Empty(t, out.DeletedFiles)
	assert.Empty(t, out.DeletedDirs)
}

func TestFromWatcherPaths_DeletedPathUsesSyntacticHeuristic(t *testing.T) {
	root := t.TempDir()

	out := FromWatcherPaths(root, []string{
		filepath.Join(root, "gone.go"),
		filepath.Join(root, "gone_dir") + string(filepath.Separator),
	})

	assert.Equal(t, []string{"gone.go"}, out.DeletedFiles)
	assert.Equal(t, []string{"gone_dir"}, out.DeletedDirs)
}

func TestFileChanges_IsEmpty(t *testing.T) {
	var fc FileChanges
	assert.True(t, fc.IsEmpty())
	fc.Add(Change{Path: "a.go", Kind: ChangedFile})
	assert.False(t, fc.IsEmpty())
}

func TestParsePorcelainStatus_ClassifiesDeletedAndChanged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "kept.go"), []byte("package root\n"), 0o644))

	status := []byte(" M kept.go\n D removed.go\n?? new_dir/\n")

	out := parsePorcelainStatus(root, status)

	assert.Contains(t, out.ChangedFiles, "kept.go")
	assert.Contains(t, out.DeletedFiles, "removed.go")
	assert.Contains(t, out.DeletedDirs, "new_dir/")
}
