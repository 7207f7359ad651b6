package executor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kgraph-dev/kgindex/internal/config"
	"github.com/kgraph-dev/kgindex/internal/graph"
)

// discoveredFile is one source file found under a project root, already
// filtered by gitignore/size/extension, paired with its project-relative
// path for every later phase to key on.
type discoveredFile struct {
	relPath string
	absPath string
	lang    graph.Language
}

// discoverProject walks projectRoot, respecting cfg's gitignore and
// max-file-size settings (the same filters the teacher's
// FileScanner.shouldProcessFile applies), and returns every indexable
// file plus every directory synthesized along the way. Directories with
// no indexable descendant are still recorded — C2's DirectoryNode has no
// "empty" distinction, a directory exists if it exists on disk and is
// not excluded.
func discoverProject(projectRoot string, cfg *config.Config) ([]discoveredFile, *graph.Data, error) {
	data := graph.NewData()

	var gitignore *config.GitignoreParser
	if cfg.Index.RespectGitignore {
		gitignore = config.NewGitignoreParser()
		_ = gitignore.LoadGitignore(projectRoot)
	}

	dirSeen := map[string]bool{".": true}
	data.Directories = append(data.Directories, graph.DirectoryNode{Path: ".", Name: filepath.Base(projectRoot)})
	var files []discoveredFile

	walkErr := filepath.Walk(projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if path == projectRoot {
			return nil
		}

		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if shouldExcludeDir(rel, gitignore) {
				return filepath.SkipDir
			}
			registerDirectory(data, dirSeen, rel)
			return nil
		}

		if gitignore != nil && gitignore.ShouldIgnore(rel, false) {
			return nil
		}
		if info.Size() > cfg.Index.MaxFileSize {
			return nil
		}

		registerFile(data, dirSeen, rel)
		files = append(files, discoveredFile{relPath: rel, absPath: path, lang: graph.LanguageForExtension(filepath.Ext(rel))})
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}

	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })

	return files, data, nil
}

func shouldExcludeDir(rel string, gitignore *config.GitignoreParser) bool {
	base := filepath.Base(rel)
	switch base {
	case ".git", "node_modules", ".idea", ".vscode":
		return true
	}
	if gitignore != nil && gitignore.ShouldIgnore(rel, true) {
		return true
	}
	return false
}

// registerDirectory ensures rel and every ancestor of rel has a
// DirectoryNode and a DirContainsDir edge to its parent,
// synthesizing any ancestor that the walk has not visited directly (it
// always will have, since filepath.Walk is top-down, but this stays
// correct if that ever changes).
func registerDirectory(data *graph.Data, seen map[string]bool, rel string) {
	if seen[rel] {
		return
	}
	parent := parentOf(rel)
	registerDirectory(data, seen, parent)

	seen[rel] = true
	data.Directories = append(data.Directories, graph.DirectoryNode{
		Path: rel,
		Name: filepath.Base(rel),
	})
	data.AddRelationship(graph.DirToDir(parent, rel))
}

func registerFile(data *graph.Data, seen map[string]bool, rel string) {
	parent := parentOf(rel)
	registerDirectory(data, seen, parent)

	lang := graph.LanguageForExtension(filepath.Ext(rel))
	data.Files = append(data.Files, graph.FileNode{
		Path:      rel,
		Language:  lang,
		Extension: filepath.Ext(rel),
		Name:      filepath.Base(rel),
	})
	data.AddRelationship(graph.DirToFile(parent, rel))
}

// parentOf returns rel's containing directory, using "." (the project
// root's own DirectoryNode.Path) for any top-level entry instead of "" —
// every directory and file always has a registered parent to link to.
func parentOf(rel string) string {
	idx := strings.LastIndex(rel, "/")
	if idx < 0 {
		return "."
	}
	return rel[:idx]
}
