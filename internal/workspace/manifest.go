// Package workspace implements C12: the per-workspace project manifest
// the executor (C7) marks before/after each project it indexes, and the
// rollup status derivation spec.md §4.12 defines over it. No direct
// teacher analogue — recovered from original_source/'s
// crates/workspace-manager/src/manifest.rs and state_service.rs, which
// show the manifest is a single file per workspace keyed by project path
// under a file lock. Here that file is a bbolt database sharing
// internal/graphdb's process-wide handle cache, so the manifest is one
// more caller of the same embedded-KV ownership model as C6/C11 rather
// than a second one.
package workspace

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kgraph-dev/kgindex/internal/config"
	"github.com/kgraph-dev/kgindex/internal/graphdb"
)

const bucketManifest = "workspace.manifest"

// Status is the closed set of per-project states spec.md §4.12 names.
type Status string

const (
	StatusPending  Status = "pending"
	StatusIndexing Status = "indexing"
	StatusIndexed  Status = "indexed"
	StatusError    Status = "error"
)

// ProjectInfo is one manifest row.
type ProjectInfo struct {
	ProjectPath   string
	Status        Status
	LastIndexedAt time.Time
	ErrorMessage  string
}

// Manifest is a workspace's project manifest, backed by one bbolt file
// shared (via internal/graphdb's handle cache) with anything else that
// touches the same path.
type Manifest struct {
	dbPath string
	db     *bbolt.DB
}

// Open acquires (creating if necessary) the manifest database for
// workspacePath under cfg.GraphDB.DataDir. Callers must call Close when
// done.
func Open(cfg *config.Config, workspacePath string) (*Manifest, error) {
	dbPath := manifestPath(cfg, workspacePath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("workspace: creating manifest dir: %w", err)
	}

	db, err := graphdb.Acquire(dbPath)
	if err != nil {
		return nil, fmt.Errorf("workspace: acquiring manifest db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketManifest))
		return err
	}); err != nil {
		_ = graphdb.Release(dbPath)
		return nil, fmt.Errorf("workspace: ensuring manifest bucket: %w", err)
	}

	return &Manifest{dbPath: dbPath, db: db}, nil
}

// Close releases the manifest's reference on the shared handle cache.
func (m *Manifest) Close() error {
	return graphdb.Release(m.dbPath)
}

func manifestPath(cfg *config.Config, workspacePath string) string {
	return filepath.Join(cfg.GraphDB.DataDir, filepath.Base(workspacePath)+".manifest.kgdb")
}

// MarkProjectStatus transitions projectPath to status, per spec.md
// §4.12: Indexing before a run starts, Indexed (with last_indexed_at =
// now) on success, Error (with errMsg) on failure. A transition other
// than to Indexed preserves whatever last_indexed_at the project already
// had recorded.
func (m *Manifest) MarkProjectStatus(projectPath string, status Status, errMsg string) error {
	return m.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketManifest))
		info := ProjectInfo{ProjectPath: projectPath, Status: status, ErrorMessage: errMsg}

		if existing, ok, err := getInfo(b, projectPath); err != nil {
			return err
		} else if ok {
			info.LastIndexedAt = existing.LastIndexedAt
		}
		if status == StatusIndexed {
			info.LastIndexedAt = time.Now()
		}

		return putInfo(b, info)
	})
}

// GetProjectInfo returns projectPath's manifest row, if one exists.
func (m *Manifest) GetProjectInfo(projectPath string) (ProjectInfo, bool, error) {
	var info ProjectInfo
	var found bool
	err := m.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketManifest))
		var err error
		info, found, err = getInfo(b, projectPath)
		return err
	})
	return info, found, err
}

// ListAllProjects returns every project row in the manifest, sorted by
// ProjectPath for deterministic output.
func (m *Manifest) ListAllProjects() ([]ProjectInfo, error) {
	var infos []ProjectInfo
	err := m.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketManifest))
		return b.ForEach(func(_, v []byte) error {
			var info ProjectInfo
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&info); err != nil {
				return err
			}
			infos = append(infos, info)
			return nil
		})
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].ProjectPath < infos[j].ProjectPath })
	return infos, err
}

// RollupStatus derives a workspace's overall status from its projects'
// statuses, per spec.md §4.12: Error if any project errored, else
// Indexing if any is indexing, else Indexed if every project is indexed,
// else Pending.
func RollupStatus(infos []ProjectInfo) Status {
	if len(infos) == 0 {
		return StatusPending
	}

	allIndexed := true
	anyIndexing := false
	for _, info := range infos {
		switch info.Status {
		case StatusError:
			return StatusError
		case StatusIndexing:
			anyIndexing = true
			allIndexed = false
		case StatusIndexed:
		default:
			allIndexed = false
		}
	}

	if anyIndexing {
		return StatusIndexing
	}
	if allIndexed {
		return StatusIndexed
	}
	return StatusPending
}

// RollupLastIndexedAt is the max LastIndexedAt over every indexed
// project, per spec.md §4.12.
func RollupLastIndexedAt(infos []ProjectInfo) time.Time {
	var max time.Time
	for _, info := range infos {
		if info.Status == StatusIndexed && info.LastIndexedAt.After(max) {
			max = info.LastIndexedAt
		}
	}
	return max
}

func getInfo(b *bbolt.Bucket, projectPath string) (ProjectInfo, bool, error) {
	data := b.Get([]byte(projectPath))
	if data == nil {
		return ProjectInfo{}, false, nil
	}
	var info ProjectInfo
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&info); err != nil {
		return ProjectInfo{}, false, err
	}
	return info, true, nil
}

func putInfo(b *bbolt.Bucket, info ProjectInfo) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(info); err != nil {
		return err
	}
	return b.Put([]byte(info.ProjectPath), buf.Bytes())
}
