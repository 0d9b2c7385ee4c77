// Package janitor sweeps stale run workspaces on a cron schedule. Normal
// runs remove their own workspace; the janitor catches leftovers from
// crashed or killed daemons.
package janitor

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hookrun/pkg/metrics"
)

type Janitor struct {
	root      string
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	log       *zap.Logger
}

func New(root string, retention time.Duration, schedule string, log *zap.Logger) *Janitor {
	return &Janitor{
		root:      root,
		retention: retention,
		schedule:  schedule,
		cron:      cron.New(),
		log:       log,
	}
}

// Start registers the sweep and begins the cron scheduler.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.Sweep); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep removes workspace directories older than the retention window.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.root)
	if err != nil {
		if !os.IsNotExist(err) {
			j.log.Warn("failed to read workspace root", zap.Error(err))
		}
		return
	}

	cutoff := time.Now().Add(-j.retention)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			j.log.Warn("failed to remove stale workspace", zap.String("path", path), zap.Error(err))
			continue
		}
		metrics.WorkspacesReaped.Inc()
		j.log.Info("stale workspace removed", zap.String("path", path))
	}
}
