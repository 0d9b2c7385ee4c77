package janitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepRemovesStaleWorkspaces(t *testing.T) {
	root := t.TempDir()

	stale := filepath.Join(root, "run-stale")
	fresh := filepath.Join(root, "run-fresh")
	require.NoError(t, os.Mkdir(stale, 0o755))
	require.NoError(t, os.Mkdir(fresh, 0o755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	New(root, time.Hour, "@hourly", zap.NewNop()).Sweep()

	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
}

func TestSweepIgnoresPlainFiles(t *testing.T) {
	root := t.TempDir()

	file := filepath.Join(root, "stray.log")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(file, old, old))

	New(root, time.Hour, "@hourly", zap.NewNop()).Sweep()

	assert.FileExists(t, file)
}

func TestSweepMissingRootIsQuiet(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "does-not-exist"), time.Hour, "@hourly", zap.NewNop())
	assert.NotPanics(t, j.Sweep)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	j := New(t.TempDir(), time.Hour, "not a schedule", zap.NewNop())
	assert.Error(t, j.Start())
}

func TestStartAndStop(t *testing.T) {
	j := New(t.TempDir(), time.Hour, "@hourly", zap.NewNop())
	require.NoError(t, j.Start())
	j.Stop()
}
