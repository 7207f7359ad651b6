package api

import "github.com/kgraph-dev/kgindex/internal/graphdb"

// Request/response DTOs for the HTTP surface. Intentionally minimal JSON
// structs, matching the teacher's internal/server/types.go convention of
// one request/response pair per RPC.

// JobRequest submits a Job to the dispatcher (C9). Type selects which
// concrete Job kind to build; Changes is only read for
// "reindex_workspace_folder_with_watched_files".
type JobRequest struct {
	Type                string   `json:"type"`
	WorkspaceFolderPath string   `json:"workspace_folder_path"`
	Changes             []string `json:"changes,omitempty"`
	Priority            string   `json:"priority,omitempty"`
}

// JobResponse carries the id a submitted job was assigned.
type JobResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// JobStatusRequest looks up one previously submitted job by id.
type JobStatusRequest struct {
	ID string `json:"id"`
}

// JobStatusResponse mirrors queue.JobInfo's lifecycle fields.
type JobStatusResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// FileRequest looks up one file node by project and dense id.
type FileRequest struct {
	Project string `json:"project"`
	FileID  uint32 `json:"file_id"`
}

// FileResponse is the repo-map lookup's result: one file's node data.
type FileResponse struct {
	File  *graphdb.FileRow `json:"file,omitempty"`
	Error string           `json:"error,omitempty"`
}

// DefinitionRequest looks up one definition node by project and dense id.
type DefinitionRequest struct {
	Project      string `json:"project"`
	DefinitionID uint32 `json:"definition_id"`
}

// DefinitionResponse is the definition lookup's result.
type DefinitionResponse struct {
	Definition *graphdb.DefinitionRow `json:"definition,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// ReferencesRequest asks for every edge pointing at a definition.
type ReferencesRequest struct {
	Project      string `json:"project"`
	DefinitionID uint32 `json:"definition_id"`
}

// ReferencesResponse is the references lookup's result.
type ReferencesResponse struct {
	References []graphdb.EdgeRow `json:"references"`
	Error      string            `json:"error,omitempty"`
}

// ImportUsageRequest asks for every definition or file that imports a
// given imported-symbol node.
type ImportUsageRequest struct {
	Project  string `json:"project"`
	ImportID uint32 `json:"import_id"`
}

// ImportUsageResponse is the import-usage lookup's result.
type ImportUsageResponse struct {
	Usages []graphdb.EdgeRow `json:"usages"`
	Error  string            `json:"error,omitempty"`
}
