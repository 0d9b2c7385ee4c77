package coordination

import (
	"context"
)

// Coordinator tracks runner node liveness. Runner daemons register themselves
// with a TTL; the trigger API lists the nodes that are still alive.
type Coordinator interface {
	// RegisterNode announces this node as alive for ttl seconds. Called
	// periodically from the daemon's heartbeat loop.
	RegisterNode(ctx context.Context, nodeID string, ttl int) error

	// GetActiveNodes lists node IDs whose registration has not expired.
	GetActiveNodes(ctx context.Context) ([]string, error)

	// Close terminates the coordinator connection.
	Close() error
}
