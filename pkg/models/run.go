package models

import (
	"time"

	"github.com/google/uuid"
)

// Conclusion is the terminal status reported for a run. It mirrors the
// pipeline's own outcome, not the inner script's exit code: a script that
// exits non-zero still yields ConclusionSuccess as long as the pipeline
// itself ran to completion.
type Conclusion string

const (
	ConclusionSuccess   Conclusion = "success"
	ConclusionFailure   Conclusion = "failure"
	ConclusionCancelled Conclusion = "cancelled"
)

// JobRequest is a single trigger: an arbitrary, untrusted script body plus
// the callback address the completion record is delivered to. Immutable once
// accepted.
type JobRequest struct {
	RunID       uuid.UUID `json:"run_id"`
	Script      string    `json:"script"`
	ResumeURL   string    `json:"resume_url"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StatusEvent is one lifecycle transition on the status channel.
type StatusEvent struct {
	Timestamp time.Time
	Message   string
}

// CompletionRecord is the structured summary built exactly once per run and
// delivered to the resume URL. It is not persisted beyond the single
// delivery attempt. The JSON tags are the wire format.
type CompletionRecord struct {
	RunID           string     `json:"workflow_run_id"`
	Conclusion      Conclusion `json:"conclusion"`
	StdoutTail      string     `json:"stdout"`
	StderrTail      string     `json:"stderr"`
	StatusTail      string     `json:"status"`
	DurationSeconds string     `json:"duration"`
}
