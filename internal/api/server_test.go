package api

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/kgraph-dev/kgindex/internal/config"
	"github.com/kgraph-dev/kgindex/internal/executor"
	"github.com/kgraph-dev/kgindex/internal/graphdb"
	"github.com/kgraph-dev/kgindex/internal/queue"
)

func idKey(id uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, id)
	return key
}

func putRow(b *bbolt.Bucket, id uint32, row interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(row); err != nil {
		return err
	}
	return b.Put(idKey(id), buf.Bytes())
}

func putEdge(b *bbolt.Bucket, edge graphdb.EdgeRow) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(edge); err != nil {
		return err
	}
	key := append(idKey(edge.Source), idKey(edge.Target)...)
	return b.Put(key, buf.Bytes())
}

func testServer(t *testing.T, handler queue.Handler) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{GraphDB: config.GraphDB{DataDir: t.TempDir()}}
	dispatcher := queue.NewDispatcher(handler, time.Second)
	t.Cleanup(dispatcher.Shutdown)

	srv := NewServer(cfg, dispatcher)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	resp, err := http.Post(ts.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestSubmitJob_DispatchesIndexWorkspaceFolder(t *testing.T) {
	dispatched := make(chan queue.Job, 1)
	_, ts := testServer(t, func(ctx context.Context, job queue.Job) error {
		dispatched <- job
		return nil
	})

	var resp JobResponse
	postJSON(t, ts, "/jobs", JobRequest{
		Type:                "index_workspace_folder",
		WorkspaceFolderPath: "/workspaces/demo",
	}, &resp)

	require.Empty(t, resp.Error)
	assert.NotEmpty(t, resp.ID)

	select {
	case job := <-dispatched:
		assert.Equal(t, "/workspaces/demo", job.WorkspacePath())
		assert.Equal(t, "index_workspace_folder", job.JobType())
	case <-time.After(time.Second):
		t.Fatal("job was never dispatched")
	}
}

func TestSubmitJob_UnknownTypeIsRejected(t *testing.T) {
	_, ts := testServer(t, func(ctx context.Context, job queue.Job) error { return nil })

	resp := postJSON(t, ts, "/jobs", JobRequest{Type: "bogus"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJobStatus_ReflectsCompletion(t *testing.T) {
	release := make(chan struct{})
	_, ts := testServer(t, func(ctx context.Context, job queue.Job) error {
		<-release
		return nil
	})

	var submitResp JobResponse
	postJSON(t, ts, "/jobs", JobRequest{
		Type:                "index_workspace_folder",
		WorkspaceFolderPath: "/workspaces/demo",
	}, &submitResp)
	require.NotEmpty(t, submitResp.ID)

	var statusResp JobStatusResponse
	postJSON(t, ts, "/jobs/status", JobStatusRequest{ID: submitResp.ID}, &statusResp)
	assert.Equal(t, string(queue.JobRunning), statusResp.Status)

	close(release)

	require.Eventually(t, func() bool {
		postJSON(t, ts, "/jobs/status", JobStatusRequest{ID: submitResp.ID}, &statusResp)
		return statusResp.Status == string(queue.JobCompleted)
	}, time.Second, 10*time.Millisecond)
}

func TestJobStatus_UnknownIDIs404(t *testing.T) {
	_, ts := testServer(t, func(ctx context.Context, job queue.Job) error { return nil })

	resp := postJSON(t, ts, "/jobs/status", JobStatusRequest{ID: "nonexistent"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func seedProjectDB(t *testing.T, cfg *config.Config, projectPath string) {
	t.Helper()
	dbPath := executor.DatabasePath(cfg, projectPath)
	db, err := graphdb.Acquire(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = graphdb.Release(dbPath) })

	require.NoError(t, graphdb.EnsureSchema(db))
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		fb := tx.Bucket([]byte(graphdb.TableFiles))
		if err := putRow(fb, 1, graphdb.FileRow{ID: 1, Path: "main.go", Name: "main.go", Language: "go"}); err != nil {
			return err
		}
		db2 := tx.Bucket([]byte(graphdb.TableDefinitions))
		if err := putRow(db2, 7, graphdb.DefinitionRow{ID: 7, FQN: "main.Run", Name: "Run"}); err != nil {
			return err
		}
		rb := tx.Bucket([]byte(graphdb.TableFileToDefinition))
		return putEdge(rb, graphdb.EdgeRow{Source: 1, Target: 7, KindID: 1})
	}))
}

func TestFileLookup_ReturnsSeededRow(t *testing.T) {
	cfg := &config.Config{GraphDB: config.GraphDB{DataDir: t.TempDir()}}
	dispatcher := queue.NewDispatcher(func(ctx context.Context, job queue.Job) error { return nil }, time.Second)
	t.Cleanup(dispatcher.Shutdown)
	seedProjectDB(t, cfg, "/workspaces/demo")

	srv := NewServer(cfg, dispatcher)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	var resp FileResponse
	postJSON(t, ts, "/repo-map", FileRequest{Project: "/workspaces/demo", FileID: 1}, &resp)
	require.Empty(t, resp.Error)
	require.NotNil(t, resp.File)
	assert.Equal(t, "main.go", resp.File.Path)
}

func TestReferencesLookup_FindsIncomingEdge(t *testing.T) {
	cfg := &config.Config{GraphDB: config.GraphDB{DataDir: t.TempDir()}}
	dispatcher := queue.NewDispatcher(func(ctx context.Context, job queue.Job) error { return nil }, time.Second)
	t.Cleanup(dispatcher.Shutdown)
	seedProjectDB(t, cfg, "/workspaces/demo")

	srv := NewServer(cfg, dispatcher)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	var resp ReferencesResponse
	postJSON(t, ts, "/references", ReferencesRequest{Project: "/workspaces/demo", DefinitionID: 7}, &resp)
	require.Empty(t, resp.Error)
	require.Len(t, resp.References, 1)
	assert.Equal(t, uint32(1), resp.References[0].Source)
}
