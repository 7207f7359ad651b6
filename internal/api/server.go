// Package api implements the minimal HTTP surface SPEC_FULL.md §4.9′
// commits to: job submission/status over C9's dispatcher, and four
// read-only lookups over C11's graph store. Grounded on the teacher's
// internal/server (stdlib net/http, one ServeMux, every RPC a POST
// handler decoding a JSON request body and encoding a JSON response) —
// no web framework, matching the teacher's explicit choice there.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kgraph-dev/kgindex/internal/config"
	"github.com/kgraph-dev/kgindex/internal/executor"
	"github.com/kgraph-dev/kgindex/internal/graphdb"
	"github.com/kgraph-dev/kgindex/internal/queue"
)

// Server exposes C9's dispatcher and C11's graph store over HTTP.
type Server struct {
	cfg        *config.Config
	dispatcher *queue.Dispatcher

	mu   sync.RWMutex
	jobs map[string]*queue.JobInfo

	httpServer *http.Server
}

// NewServer returns a Server that dispatches jobs through dispatcher and
// resolves project databases under cfg.GraphDB.DataDir.
func NewServer(cfg *config.Config, dispatcher *queue.Dispatcher) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		jobs:       make(map[string]*queue.JobInfo),
	}
}

// Mux builds a ServeMux with every handler registered, for tests and for
// callers that want to mount it under their own http.Server.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", s.handleSubmitJob)
	mux.HandleFunc("/jobs/status", s.handleJobStatus)
	mux.HandleFunc("/repo-map", s.handleFile)
	mux.HandleFunc("/definition", s.handleDefinition)
	mux.HandleFunc("/references", s.handleReferences)
	mux.HandleFunc("/import-usage", s.handleImportUsage)
	return mux
}

// ListenAndServe starts serving on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.Mux()}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

// handleSubmitJob wraps queue.Dispatcher.Dispatch, per spec.md §6's "POST
// /jobs submits a Job, returns job_id".
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := buildJob(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	info, err := s.dispatcher.Dispatch(r.Context(), job)
	if err != nil {
		writeJSON(w, JobResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	s.jobs[info.ID] = info
	s.mu.Unlock()

	writeJSON(w, JobResponse{ID: info.ID})
}

func buildJob(req JobRequest) (queue.Job, error) {
	priority := parsePriority(req.Priority)

	switch req.Type {
	case "index_workspace_folder":
		return queue.IndexWorkspaceFolder{WorkspaceFolderPath: req.WorkspaceFolderPath, Pri: priority}, nil
	case "reindex_workspace_folder_with_watched_files":
		changes := make(map[string]struct{}, len(req.Changes))
		for _, path := range req.Changes {
			changes[path] = struct{}{}
		}
		return queue.ReindexWorkspaceFolderWithWatchedFiles{
			WorkspaceFolderPath: req.WorkspaceFolderPath,
			WorkspaceChanges:    changes,
			Pri:                 priority,
		}, nil
	default:
		return nil, fmt.Errorf("unknown job type %q", req.Type)
	}
}

func parsePriority(p string) queue.Priority {
	switch p {
	case "high":
		return queue.PriorityHigh
	case "low":
		return queue.PriorityLow
	default:
		return queue.PriorityNormal
	}
}

// handleJobStatus returns a previously submitted job's current JobInfo.
// It is served at /jobs/status and reads the job id from the JSON request
// body (JobStatusRequest), not from the URL path. The dispatcher mutates JobInfo in
// place as a job runs, so the pointer stashed at submission time always
// reflects the job's live status — no separate polling call into C9 is
// needed.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	var req JobStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	info, ok := s.jobs[req.ID]
	s.mu.RUnlock()

	if !ok {
		http.Error(w, fmt.Sprintf("job %q not found", req.ID), http.StatusNotFound)
		return
	}

	resp := JobStatusResponse{
		ID:        info.ID,
		Type:      info.Job.JobType(),
		Status:    string(info.Status),
		CreatedAt: info.CreatedAt.Format(time.RFC3339),
		Error:     info.Error,
	}
	if !info.StartedAt.IsZero() {
		resp.StartedAt = info.StartedAt.Format(time.RFC3339)
	}
	if !info.CompletedAt.IsZero() {
		resp.CompletedAt = info.CompletedAt.Format(time.RFC3339)
	}
	writeJSON(w, resp)
}

// handleFile is the repo-map lookup: one file node by project + id.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db, release, err := s.openProject(req.Project)
	if err != nil {
		writeJSON(w, FileResponse{Error: err.Error()})
		return
	}
	defer release()

	row, found, err := graphdb.GetFile(db, req.FileID)
	if err != nil {
		writeJSON(w, FileResponse{Error: err.Error()})
		return
	}
	if !found {
		http.Error(w, fmt.Sprintf("file %d not found", req.FileID), http.StatusNotFound)
		return
	}
	writeJSON(w, FileResponse{File: &row})
}

// handleDefinition looks up one definition node.
func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	var req DefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db, release, err := s.openProject(req.Project)
	if err != nil {
		writeJSON(w, DefinitionResponse{Error: err.Error()})
		return
	}
	defer release()

	row, found, err := graphdb.GetDefinition(db, req.DefinitionID)
	if err != nil {
		writeJSON(w, DefinitionResponse{Error: err.Error()})
		return
	}
	if !found {
		http.Error(w, fmt.Sprintf("definition %d not found", req.DefinitionID), http.StatusNotFound)
		return
	}
	writeJSON(w, DefinitionResponse{Definition: &row})
}

// handleReferences returns every edge pointing at a definition, scanning
// both the definition-to-definition and file-to-definition tables since
// either kind of node can reference a definition.
func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	var req ReferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db, release, err := s.openProject(req.Project)
	if err != nil {
		writeJSON(w, ReferencesResponse{Error: err.Error()})
		return
	}
	defer release()

	var refs []graphdb.EdgeRow
	for _, table := range []string{graphdb.TableDefinitionToDefinition, graphdb.TableFileToDefinition} {
		edges, err := graphdb.RelationshipsTo(db, table, req.DefinitionID)
		if err != nil {
			writeJSON(w, ReferencesResponse{Error: err.Error()})
			return
		}
		refs = append(refs, edges...)
	}
	writeJSON(w, ReferencesResponse{References: refs})
}

// handleImportUsage returns every definition or file that imports a
// given imported-symbol node.
func (s *Server) handleImportUsage(w http.ResponseWriter, r *http.Request) {
	var req ImportUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db, release, err := s.openProject(req.Project)
	if err != nil {
		writeJSON(w, ImportUsageResponse{Error: err.Error()})
		return
	}
	defer release()

	var usages []graphdb.EdgeRow
	for _, table := range []string{graphdb.TableDefinitionToImport, graphdb.TableFileToImport} {
		edges, err := graphdb.RelationshipsTo(db, table, req.ImportID)
		if err != nil {
			writeJSON(w, ImportUsageResponse{Error: err.Error()})
			return
		}
		usages = append(usages, edges...)
	}
	writeJSON(w, ImportUsageResponse{Usages: usages})
}

// openProject resolves project to its bbolt database path and acquires
// a handle through C6/C11's shared handle cache. The returned release
// func must be called exactly once.
func (s *Server) openProject(project string) (*bbolt.DB, func(), error) {
	dbPath := executor.DatabasePath(s.cfg, project)
	db, err := graphdb.Acquire(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening project %q: %w", project, err)
	}
	return db, func() { _ = graphdb.Release(dbPath) }, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
