// Package logsink provides the per-run log channels: three independent
// append-only line streams (stdout, stderr, status) owned by exactly one run.
package logsink

import (
	"strings"
	"sync"
	"time"

	"hookrun/pkg/models"
)

// Channel is an append-only, ordered sequence of text lines. It implements
// io.Writer so a subprocess stream can be redirected straight into it; data
// is split on newlines and any unterminated remainder is flushed as a final
// line by Close.
type Channel struct {
	mu      sync.Mutex
	lines   []string
	partial strings.Builder
	closed  bool
}

// Write appends raw stream data, splitting it into lines. It never fails;
// writes after Close are dropped.
func (c *Channel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return len(p), nil
	}
	for _, b := range p {
		if b == '\n' {
			c.lines = append(c.lines, c.partial.String())
			c.partial.Reset()
			continue
		}
		c.partial.WriteByte(b)
	}
	return len(p), nil
}

// Append adds a single complete line.
func (c *Channel) Append(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.lines = append(c.lines, line)
}

// Close flushes any unterminated trailing data as a final line and marks the
// channel read-only.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.partial.Len() > 0 {
		c.lines = append(c.lines, c.partial.String())
		c.partial.Reset()
	}
	c.closed = true
}

// Lines returns a copy of the channel contents in append order. An empty or
// never-written channel yields an empty slice, not an error.
func (c *Channel) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len reports the number of complete lines appended so far.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Sink owns the three log channels for the lifetime of one run. Sinks are
// never shared across runs.
type Sink struct {
	stdout *Channel
	stderr *Channel
	status *Channel
}

func New() *Sink {
	return &Sink{
		stdout: &Channel{},
		stderr: &Channel{},
		status: &Channel{},
	}
}

func (s *Sink) Stdout() *Channel { return s.stdout }
func (s *Sink) Stderr() *Channel { return s.stderr }
func (s *Sink) Status() *Channel { return s.status }

// Event appends a timestamped lifecycle event to the status channel and
// returns it. Events appended sequentially carry non-decreasing timestamps.
func (s *Sink) Event(message string) models.StatusEvent {
	ev := models.StatusEvent{Timestamp: time.Now().UTC(), Message: message}
	s.status.Append(ev.Timestamp.Format(time.RFC3339Nano) + " " + ev.Message)
	return ev
}

// Close flushes and seals all three channels. Writing is complete for the
// run once Close returns; readers may then consume the lines.
func (s *Sink) Close() {
	s.stdout.Close()
	s.stderr.Close()
	s.status.Close()
}
