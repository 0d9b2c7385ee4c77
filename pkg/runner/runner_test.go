package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrun/pkg/logsink"
)

func runScript(t *testing.T, script string) (Outcome, *logsink.Sink) {
	t.Helper()
	sink := logsink.New()
	outcome := New(filepath.Join(t.TempDir(), "run")).Run(context.Background(), script, sink)
	sink.Close()
	return outcome, sink
}

func statusText(sink *logsink.Sink) string {
	return strings.Join(sink.Status().Lines(), "\n")
}

func TestRunCapturesStdout(t *testing.T) {
	outcome, sink := runScript(t, "echo hello")

	assert.True(t, outcome.Ran)
	assert.Zero(t, outcome.ExitCode)
	assert.Equal(t, []string{"hello"}, sink.Stdout().Lines())
	assert.Empty(t, sink.Stderr().Lines())
}

func TestRunRecordsLifecycleEvents(t *testing.T) {
	_, sink := runScript(t, "echo hi")

	status := statusText(sink)
	assert.Contains(t, status, "script materialized")
	assert.Contains(t, status, "script marked executable")
	assert.Contains(t, status, "execution started")
	assert.Contains(t, status, "script succeeded")
}

func TestRunRecordsNonZeroExit(t *testing.T) {
	outcome, sink := runScript(t, "exit 1")

	assert.True(t, outcome.Ran)
	assert.Equal(t, 1, outcome.ExitCode)
	assert.Contains(t, statusText(sink), "script failed with exit code 1")
}

func TestRunKeepsStreamsSeparate(t *testing.T) {
	_, sink := runScript(t, "echo out\necho err 1>&2\necho out2")

	assert.Equal(t, []string{"out", "out2"}, sink.Stdout().Lines())
	assert.Equal(t, []string{"err"}, sink.Stderr().Lines())
}

func TestRunEmptyScriptStillCompletes(t *testing.T) {
	outcome, sink := runScript(t, "")

	assert.True(t, outcome.Ran)
	assert.Zero(t, outcome.ExitCode)
	assert.Empty(t, sink.Stdout().Lines())
	assert.Contains(t, statusText(sink), "script succeeded")
}

func TestRunHonorsExistingShebang(t *testing.T) {
	outcome, sink := runScript(t, "#!/bin/sh\necho shebang")

	assert.True(t, outcome.Ran)
	assert.Equal(t, []string{"shebang"}, sink.Stdout().Lines())
}

func TestRunMaterializationFailureDoesNotPanic(t *testing.T) {
	// A regular file where the workspace dir should be forces both the
	// mkdir and the write to fail; everything must land as status events.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	sink := logsink.New()
	outcome := New(blocker).Run(context.Background(), "echo nope", sink)
	sink.Close()

	assert.False(t, outcome.Ran)
	status := statusText(sink)
	assert.Contains(t, status, "failed to create workspace")
	assert.Contains(t, status, "skipping execution")
	assert.Empty(t, sink.Stdout().Lines())
}

func TestRunTimeoutIsRecordedAsData(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sink := logsink.New()
	outcome := New(filepath.Join(t.TempDir(), "run")).Run(ctx, "sleep 30", sink)
	sink.Close()

	assert.True(t, outcome.Ran)
	assert.NotZero(t, outcome.ExitCode)
	assert.Contains(t, statusText(sink), "execution timed out")
}
