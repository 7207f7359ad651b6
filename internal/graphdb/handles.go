package graphdb

import (
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// handleCache is the process-wide bbolt handle cache. bbolt allows only
// one open *bbolt.DB per file within a process (a second Open on the same
// path blocks forever waiting for the file lock held by the first), so
// every component that opens a database file — the bulk loader (C6), the
// schema manager (C11), and the workspace manifest (C12, which keeps its
// own <workspace>.manifest.kgdb file) — must share one handle per file
// path rather than opening their own. This resolves the
// "does the workspace manifest need its own connection layer" Open
// Question: it doesn't, it borrows this cache like everything else.
type handleCache struct {
	mu      sync.Mutex
	handles map[string]*cachedHandle
}

type cachedHandle struct {
	db       *bbolt.DB
	refCount int
}

var cache = &handleCache{handles: make(map[string]*cachedHandle)}

// Acquire returns the shared *bbolt.DB for path, opening it if this is the
// first acquirer. Callers must pair every Acquire with a Release.
func Acquire(path string) (*bbolt.DB, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if h, ok := cache.handles[path]; ok {
		h.refCount++
		return h.db, nil
	}

	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	cache.handles[path] = &cachedHandle{db: db, refCount: 1}
	return db, nil
}

// Release drops one reference on path's handle, closing it once the last
// acquirer releases. Safe to call even if Acquire failed for that path
// (no-op in that case).
func Release(path string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	h, ok := cache.handles[path]
	if !ok {
		return nil
	}
	h.refCount--
	if h.refCount > 0 {
		return nil
	}
	delete(cache.handles, path)
	return h.db.Close()
}

// OpenCount reports how many distinct project paths currently have a live
// handle — used by tests and by diagnostics, never by production logic.
func OpenCount() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return len(cache.handles)
}
