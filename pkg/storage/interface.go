package storage

import (
	"context"

	"hookrun/pkg/models"
)

// Queue dispatches accepted job requests from the trigger API to runner
// daemons.
type Queue interface {
	// Push adds a job request to the pending queue.
	Push(ctx context.Context, req *models.JobRequest) error

	// Pop retrieves a job request for a specific consumer group. A nil
	// request with a nil error means the queue was empty.
	Pop(ctx context.Context, group string, consumer string) (string, *models.JobRequest, error)

	// Ack acknowledges a job request as processed.
	Ack(ctx context.Context, group string, msgID string) error

	// EnsureGroup ensures the consumer group exists.
	EnsureGroup(ctx context.Context, group string) error

	// Len reports the number of entries currently in the pending stream.
	Len(ctx context.Context) (int64, error)
}

// ArchiveStore optionally persists a run's raw channel text after the
// completion record has been delivered. Channels are otherwise discarded.
type ArchiveStore interface {
	// Store saves the joined channel text and returns a reference path/URL.
	Store(ctx context.Context, runID string, logs []byte) (string, error)
	// Retrieve fetches archived logs by reference.
	Retrieve(ctx context.Context, reference string) ([]byte, error)
}
