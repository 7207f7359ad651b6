// Package queue implements C9: the per-workspace job queue and worker
// pool that sits in front of C7's indexing pipeline. Grounded on the
// goroutine-lifecycle and context-cancellation idioms the teacher already
// uses in internal/indexing/watcher.go (a context.CancelFunc per watcher,
// sync.WaitGroup-gated shutdown); the teacher itself has no per-workspace
// job queue (lci indexes synchronously under one mutex-protected
// MasterIndex), so the dispatcher/worker split here is new code built to
// spec.md §4.9's decision table, not an adaptation of a teacher file.
package queue

import "time"

// Priority orders pending jobs; High pre-empts same-type pending jobs
// already queued for a workspace.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// Job is the discriminated union spec.md §4.9 names. Concrete job kinds
// (IndexWorkspaceFolder, ReindexWorkspaceFolderWithWatchedFiles) each
// implement this interface rather than being expressed as a tagged enum —
// the idiomatic Go rendering of the same discriminated union.
type Job interface {
	WorkspacePath() string
	JobType() string
	Priority() Priority
}

// IndexWorkspaceFolder requests a full workspace index.
type IndexWorkspaceFolder struct {
	WorkspaceFolderPath string
	Pri                 Priority
}

func (j IndexWorkspaceFolder) WorkspacePath() string { return j.WorkspaceFolderPath }
func (j IndexWorkspaceFolder) JobType() string       { return "index_workspace_folder" }
func (j IndexWorkspaceFolder) Priority() Priority    { return j.Pri }

// ReindexWorkspaceFolderWithWatchedFiles requests an incremental
// re-index limited to the paths the watcher (C10) observed changing.
type ReindexWorkspaceFolderWithWatchedFiles struct {
	WorkspaceFolderPath string
	WorkspaceChanges    map[string]struct{}
	Pri                 Priority
}

func (j ReindexWorkspaceFolderWithWatchedFiles) WorkspacePath() string {
	return j.WorkspaceFolderPath
}
func (j ReindexWorkspaceFolderWithWatchedFiles) JobType() string {
	return "reindex_workspace_folder_with_watched_files"
}
func (j ReindexWorkspaceFolderWithWatchedFiles) Priority() Priority { return j.Pri }

// JobStatus is the closed set of states a JobInfo moves through.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobInfo wraps a Job with a generated id, lifecycle timestamps and its
// current status, per spec.md §4.9.
type JobInfo struct {
	ID          string
	Job         Job
	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string
}

// workerMessage is WorkerMessage from spec.md §4.9: either a new job to
// enqueue or a request to drop pending jobs of one type. Exactly one
// field is non-zero.
type workerMessage struct {
	job        *JobInfo
	cancelType string
}

func jobMessage(info *JobInfo) workerMessage   { return workerMessage{job: info} }
func cancelMessage(jobType string) workerMessage { return workerMessage{cancelType: jobType} }

func (m workerMessage) isCancel() bool { return m.job == nil }
