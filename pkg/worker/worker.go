// Package worker is the runner daemon core: it consumes accepted job
// requests from the queue and drives one pipeline per request, with disjoint
// workspaces and sinks for concurrent runs.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	config "hookrun/configs"
	"hookrun/pkg/coordination"
	"hookrun/pkg/metrics"
	"hookrun/pkg/models"
	"hookrun/pkg/pipeline"
	"hookrun/pkg/storage"
)

const consumerGroup = "hookrun-runners"

type Worker struct {
	ID       string
	Hostname string

	// Resources
	TotalCPU int
	TotalMem uint64 // in MB

	coordinator   coordination.Coordinator
	queue         storage.Queue
	pipe          *pipeline.Pipeline
	archive       storage.ArchiveStore // nil disables archival
	workspaceRoot string
	execTimeout   time.Duration
	heartbeatTTL  int
	interval      time.Duration
	log           *zap.Logger
}

func New(cfg *config.Config, coord coordination.Coordinator, queue storage.Queue, pipe *pipeline.Pipeline, archive storage.ArchiveStore, log *zap.Logger) *Worker {
	hostname, _ := os.Hostname()
	id := fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8])

	return &Worker{
		ID:            id,
		Hostname:      hostname,
		TotalCPU:      runtime.NumCPU(),
		TotalMem:      detectTotalMemory(log),
		coordinator:   coord,
		queue:         queue,
		pipe:          pipe,
		archive:       archive,
		workspaceRoot: cfg.WorkspaceRoot,
		execTimeout:   cfg.ExecTimeout,
		heartbeatTTL:  cfg.HeartbeatTTL,
		interval:      5 * time.Second,
		log:           log,
	}
}

func detectTotalMemory(log *zap.Logger) uint64 {
	v, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to detect memory, defaulting to 1GB", zap.Error(err))
		return 1024
	}
	return v.Total / 1024 / 1024
}

// Start begins the daemon's heartbeat and work loops. It blocks until the
// context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("runner daemon starting",
		zap.String("node_id", w.ID),
		zap.Int("cpus", w.TotalCPU),
		zap.Uint64("mem_mb", w.TotalMem))

	if err := w.queue.EnsureGroup(ctx, consumerGroup); err != nil {
		w.log.Warn("failed to ensure consumer group", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.heartbeat(ctx); err != nil {
					w.log.Warn("heartbeat failed", zap.Error(err))
				}
			}
		}
	}()

	// One pipeline per job; the semaphore bounds concurrent runs to the
	// CPU count. Each run gets its own sink and workspace.
	sem := make(chan struct{}, w.TotalCPU)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			sem <- struct{}{}
			go func() {
				defer func() { <-sem }()
				w.consumeOne(ctx)
			}()
		}
	}
}

func (w *Worker) consumeOne(ctx context.Context) {
	msgID, req, err := w.queue.Pop(ctx, consumerGroup, w.ID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Error("failed to pop job request", zap.Error(err))
		time.Sleep(1 * time.Second) // backoff
		return
	}
	if req == nil {
		// Queue empty; brief sleep so the acquire/release loop doesn't spin.
		time.Sleep(1 * time.Second)
		return
	}

	metrics.RunsInFlight.Inc()
	defer metrics.RunsInFlight.Dec()

	w.log.Info("job request received", zap.String("run_id", req.RunID.String()))

	workdir := filepath.Join(w.workspaceRoot, req.RunID.String())

	runCtx, cancel := context.WithTimeout(ctx, w.execTimeout)
	record := w.pipe.Execute(runCtx, *req, workdir)
	cancel()

	if w.archive != nil {
		w.archiveRun(ctx, req.RunID.String(), record)
	}

	if err := os.RemoveAll(workdir); err != nil {
		w.log.Warn("failed to remove workspace", zap.String("workdir", workdir), zap.Error(err))
	}

	if err := w.queue.Ack(ctx, consumerGroup, msgID); err != nil {
		w.log.Warn("failed to ack job request", zap.Error(err))
	}
}

// archiveRun persists the delivered tails for later inspection. The three
// channels stay separate in the archived text, matching the record.
func (w *Worker) archiveRun(ctx context.Context, runID string, record models.CompletionRecord) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "conclusion: %s\nduration: %ss\n\nSTDOUT:\n%s\n\nSTDERR:\n%s\n\nSTATUS:\n%s\n",
		record.Conclusion, record.DurationSeconds,
		record.StdoutTail, record.StderrTail, record.StatusTail)

	ref, err := w.archive.Store(ctx, runID, buf.Bytes())
	if err != nil {
		w.log.Warn("failed to archive run logs", zap.String("run_id", runID), zap.Error(err))
		return
	}
	w.log.Debug("run logs archived", zap.String("run_id", runID), zap.String("ref", ref))
}

func (w *Worker) heartbeat(ctx context.Context) error {
	if err := w.coordinator.RegisterNode(ctx, w.ID, w.heartbeatTTL); err != nil {
		return fmt.Errorf("failed to register node: %w", err)
	}
	metrics.HeartbeatsSent.Inc()

	if depth, err := w.queue.Len(ctx); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}
	return nil
}
