package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	config "hookrun/configs"
	"hookrun/pkg/callback"
	"hookrun/pkg/models"
	"hookrun/pkg/pipeline"
)

type stubQueue struct {
	mu    sync.Mutex
	jobs  []*models.JobRequest
	acked []string
}

func (q *stubQueue) Push(ctx context.Context, req *models.JobRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, req)
	return nil
}

func (q *stubQueue) Pop(ctx context.Context, group, consumer string) (string, *models.JobRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return "", nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return "msg-" + job.RunID.String(), job, nil
}

func (q *stubQueue) Ack(ctx context.Context, group, msgID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, msgID)
	return nil
}

func (q *stubQueue) EnsureGroup(ctx context.Context, group string) error { return nil }

func (q *stubQueue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.jobs)), nil
}

type memArchive struct {
	mu     sync.Mutex
	stored map[string][]byte
}

func (a *memArchive) Store(ctx context.Context, runID string, logs []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stored == nil {
		a.stored = make(map[string][]byte)
	}
	a.stored[runID] = logs
	return "mem://" + runID, nil
}

func (a *memArchive) Retrieve(ctx context.Context, reference string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stored[reference], nil
}

func newTestWorker(t *testing.T, queue *stubQueue, archive *memArchive) *Worker {
	t.Helper()
	cfg := &config.Config{
		WorkspaceRoot: t.TempDir(),
		ExecTimeout:   time.Minute,
		HeartbeatTTL:  10,
	}
	pipe := pipeline.New(callback.NewDispatcher(nil, nil), zap.NewNop())
	if archive == nil {
		// A typed nil would read as a non-nil ArchiveStore.
		return New(cfg, nil, queue, pipe, nil, zap.NewNop())
	}
	return New(cfg, nil, queue, pipe, archive, zap.NewNop())
}

func TestConsumeOneRunsJobAndAcks(t *testing.T) {
	var delivered models.CompletionRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&delivered))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	queue := &stubQueue{}
	job := &models.JobRequest{
		RunID:       uuid.New(),
		Script:      "echo from-worker",
		ResumeURL:   srv.URL,
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, queue.Push(context.Background(), job))

	w := newTestWorker(t, queue, nil)
	w.consumeOne(context.Background())

	assert.Equal(t, []string{"msg-" + job.RunID.String()}, queue.acked)
	assert.Equal(t, job.RunID.String(), delivered.RunID)
	assert.Equal(t, "from-worker", delivered.StdoutTail)
}

func TestConsumeOneRemovesWorkspace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	queue := &stubQueue{}
	job := &models.JobRequest{
		RunID:     uuid.New(),
		Script:    "echo hi",
		ResumeURL: srv.URL,
	}
	require.NoError(t, queue.Push(context.Background(), job))

	w := newTestWorker(t, queue, nil)
	w.consumeOne(context.Background())

	entries, err := os.ReadDir(w.workspaceRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "run workspace must be removed after the run")
	assert.NoDirExists(t, filepath.Join(w.workspaceRoot, job.RunID.String()))
}

func TestConsumeOneArchivesRunLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	queue := &stubQueue{}
	job := &models.JobRequest{
		RunID:     uuid.New(),
		Script:    "echo archived-line",
		ResumeURL: srv.URL,
	}
	require.NoError(t, queue.Push(context.Background(), job))

	archive := &memArchive{}
	w := newTestWorker(t, queue, archive)
	w.consumeOne(context.Background())

	stored := archive.stored[job.RunID.String()]
	require.NotEmpty(t, stored)
	assert.Contains(t, string(stored), "conclusion: success")
	assert.Contains(t, string(stored), "archived-line")
	assert.Contains(t, string(stored), "STDERR:")
}
