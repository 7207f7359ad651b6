// Package changes implements C8: classifying a set of paths — either a
// VCS status listing or a list of absolute paths a watcher observed — into
// the four kinds C7's incremental indexing pass needs. Grounded on the
// teacher's internal/git/provider.go (external `git` invocation via
// os/exec, --name-status parsing) for the VCS path and generalized to
// also accept raw watcher paths, which have no VCS status line to read.
package changes

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Kind is the closed set of ways a path can have changed.
type Kind int

const (
	ChangedFile Kind = iota
	DeletedFile
	ChangedDir
	DeletedDir
)

func (k Kind) String() string {
	switch k {
	case ChangedFile:
		return "changed_file"
	case DeletedFile:
		return "deleted_file"
	case ChangedDir:
		return "changed_dir"
	case DeletedDir:
		return "deleted_dir"
	default:
		return "unknown"
	}
}

// Change is one classified, project-relative path.
type Change struct {
	Path string
	Kind Kind
}

// FileChanges groups classified changes the way C7's execute_incremental
// consumes them — as a set per kind, not a flat list, mirroring spec.md
// §4.8's "FileChanges" shape.
type FileChanges struct {
	ChangedFiles []string
	DeletedFiles []string
	ChangedDirs  []string
	DeletedDirs  []string
}

// Add files one classified change into the matching bucket.
func (c *FileChanges) Add(ch Change) {
	switch ch.Kind {
	case ChangedFile:
		c.ChangedFiles = append(c.ChangedFiles, ch.Path)
	case DeletedFile:
		c.DeletedFiles = append(c.DeletedFiles, ch.Path)
	case ChangedDir:
		c.ChangedDirs = append(c.ChangedDirs, ch.Path)
	case DeletedDir:
		c.DeletedDirs = append(c.DeletedDirs, ch.Path)
	}
}

// IsEmpty reports whether every bucket is empty.
func (c *FileChanges) IsEmpty() bool {
	return len(c.ChangedFiles) == 0 && len(c.DeletedFiles) == 0 &&
		len(c.ChangedDirs) == 0 && len(c.DeletedDirs) == 0
}

// FromWatcherPaths classifies a batch of absolute paths the watcher (C10)
// observed. Directory vs file is determined by filesystem probe when the
// path still exists; a path that no longer exists falls back to a
// syntactic heuristic (trailing separator, or no file extension, means
// directory).
func FromWatcherPaths(projectRoot string, absPaths []string) FileChanges {
	var out FileChanges
	for _, abs := range absPaths {
		rel, err := filepath.Rel(projectRoot, abs)
		if err != nil {
			rel = abs
		}
		rel = filepath.ToSlash(rel)

		isDir, existed := probeIsDir(abs)
		if existed {
			if isDir {
				out.Add(Change{Path: rel, Kind: ChangedDir})
			} else {
				out.Add(Change{Path: rel, Kind: ChangedFile})
			}
			continue
		}

		if looksLikeDir(abs) {
			out.Add(Change{Path: rel, Kind: DeletedDir})
		} else {
			out.Add(Change{Path: rel, Kind: DeletedFile})
		}
	}
	return out
}

func probeIsDir(path string) (isDir bool, existed bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return info.IsDir(), true
}

func looksLikeDir(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	return filepath.Ext(path) == ""
}

// FromGitStatus classifies the output of `git status --porcelain
// --no-renames` run against repoRoot. Renames are disabled so every line
// is a simple two-character status code followed by one path, matching
// the teacher's --no-renames convention in internal/git/provider.go.
func FromGitStatus(ctx context.Context, repoRoot string) (FileChanges, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain", "--no-renames")
	cmd.Dir = repoRoot
	output, err := cmd.Output()
	if err != nil {
		return FileChanges{}, fmt.Errorf("git status failed: %w", err)
	}
	return parsePorcelainStatus(repoRoot, output), nil
}

func parsePorcelainStatus(repoRoot string, output []byte) FileChanges {
	var out FileChanges
	lines := bytes.Split(output, []byte("\n"))
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		status := string(line[:2])
		relPath := strings.TrimSpace(string(line[3:]))
		if relPath == "" {
			continue
		}

		abs := filepath.Join(repoRoot, relPath)
		deleted := strings.Contains(status, "D")

		isDir, existed := probeIsDir(abs)
		switch {
		case existed && isDir && !deleted:
			out.Add(Change{Path: filepath.ToSlash(relPath), Kind: ChangedDir})
		case existed && !deleted:
			out.Add(Change{Path: filepath.ToSlash(relPath), Kind: ChangedFile})
		case looksLikeDir(relPath):
			out.Add(Change{Path: filepath.ToSlash(relPath), Kind: DeletedDir})
		default:
			out.Add(Change{Path: filepath.ToSlash(relPath), Kind: DeletedFile})
		}
	}
	return out
}
