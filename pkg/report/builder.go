// Package report turns a run's log channels into a single bounded, sanitized
// completion record. Building the record never fails: an empty or unreadable
// channel yields a fixed placeholder, not an error.
package report

import (
	"strconv"
	"strings"
	"time"

	"hookrun/pkg/logsink"
	"hookrun/pkg/models"
)

const (
	// TailLines bounds each delivered channel to its last N lines.
	TailLines = 20

	// Placeholder stands in for a channel that produced nothing.
	Placeholder = "(no output)"
)

// Sanitize replaces characters that would corrupt downstream templated
// delivery. Backticks become single quotes. Idempotent by construction.
func Sanitize(line string) string {
	return strings.ReplaceAll(line, "`", "'")
}

// Tail returns at most the last n lines in original order; fewer than n
// returns them all.
func Tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// channelText sanitizes, truncates and joins one channel. Nil and empty
// channels read back as the placeholder.
func channelText(ch *logsink.Channel) string {
	if ch == nil {
		return Placeholder
	}
	lines := ch.Lines()
	if len(lines) == 0 {
		return Placeholder
	}
	tail := Tail(lines, TailLines)
	sanitized := make([]string, len(tail))
	for i, line := range tail {
		sanitized[i] = Sanitize(line)
	}
	return strings.Join(sanitized, "\n")
}

// Duration converts a start/end instant pair into whole elapsed seconds,
// clamped to zero when the captures race or the clock skews.
func Duration(t0, t1 time.Time) int64 {
	secs := int64(t1.Sub(t0).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// Build assembles the completion record for one run. Exactly one record is
// produced per run, unconditionally.
func Build(runID string, conclusion models.Conclusion, sink *logsink.Sink, t0, t1 time.Time) models.CompletionRecord {
	var stdout, stderr, status *logsink.Channel
	if sink != nil {
		stdout, stderr, status = sink.Stdout(), sink.Stderr(), sink.Status()
	}
	return models.CompletionRecord{
		RunID:           runID,
		Conclusion:      conclusion,
		StdoutTail:      channelText(stdout),
		StderrTail:      channelText(stderr),
		StatusTail:      channelText(status),
		DurationSeconds: strconv.FormatInt(Duration(t0, t1), 10),
	}
}
