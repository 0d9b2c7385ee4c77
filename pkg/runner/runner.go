// Package runner materializes a script payload as an executable unit and
// invokes it, routing output and exit outcome into the run's log sink. It
// never fails: every error on the way is recorded as a status event and the
// pipeline proceeds.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"hookrun/pkg/logsink"
)

const scriptFileName = "job.sh"

// Outcome describes what happened to the script, as data. It is never an
// error value; a failed or unstarted script is an Outcome, not a fault.
type Outcome struct {
	Ran      bool
	ExitCode int
}

type ScriptRunner struct {
	workdir string
}

// New returns a runner that materializes the script under workdir. The
// directory must be private to one run; concurrent runs use disjoint dirs.
func New(workdir string) *ScriptRunner {
	return &ScriptRunner{workdir: workdir}
}

// Run executes the script with stdout and stderr redirected independently
// into the sink's channels. The two streams are never merged. All lifecycle
// transitions land on the status channel.
func (r *ScriptRunner) Run(ctx context.Context, script string, sink *logsink.Sink) Outcome {
	path := filepath.Join(r.workdir, scriptFileName)

	if err := os.MkdirAll(r.workdir, 0o755); err != nil {
		sink.Event(fmt.Sprintf("failed to create workspace %s: %v", r.workdir, err))
	}

	// Arbitrary payloads rarely carry an interpreter line; default to sh so
	// the unit is directly invokable once chmod'ed.
	if !strings.HasPrefix(script, "#!") {
		script = "#!/bin/sh\n" + script
	}

	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		sink.Event(fmt.Sprintf("failed to materialize script: %v", err))
	} else {
		sink.Event("script materialized at " + path)
	}

	if err := os.Chmod(path, 0o755); err != nil {
		sink.Event(fmt.Sprintf("failed to mark script executable: %v", err))
	} else {
		sink.Event("script marked executable")
	}

	// The unit must exist and be runnable at invocation time; otherwise we
	// record the fact and skip execution rather than crash.
	info, err := os.Stat(path)
	if err != nil {
		sink.Event("script missing at invocation time, skipping execution")
		return Outcome{}
	}
	if info.Mode().Perm()&0o111 == 0 {
		sink.Event("script is not executable, skipping execution")
		return Outcome{}
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = r.workdir
	cmd.Stdout = sink.Stdout()
	cmd.Stderr = sink.Stderr()
	// Own process group so a timeout kill takes the script's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	sink.Event("execution started")
	err = cmd.Run()

	switch {
	case err == nil:
		sink.Event("script succeeded")
		return Outcome{Ran: true, ExitCode: 0}
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if ctx.Err() == context.DeadlineExceeded {
				sink.Event("execution timed out")
			}
			sink.Event(fmt.Sprintf("script failed with exit code %d", code))
			return Outcome{Ran: true, ExitCode: code}
		}
		// Spawn failure: the process never ran.
		sink.Event(fmt.Sprintf("failed to start script: %v", err))
		return Outcome{ExitCode: -1}
	}
}
