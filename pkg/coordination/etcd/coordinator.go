package etcd

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const nodePrefix = "/hookrun/nodes/"

type EtcdCoordinator struct {
	client *clientv3.Client
}

func NewEtcdCoordinator(endpoints []string) (*EtcdCoordinator, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &EtcdCoordinator{client: cli}, nil
}

func (c *EtcdCoordinator) Close() error {
	return c.client.Close()
}

// RegisterNode puts the node key under a short lease. The daemon's heartbeat
// loop calls this repeatedly, refreshing the registration; a dead node's key
// expires with its lease.
func (c *EtcdCoordinator) RegisterNode(ctx context.Context, nodeID string, ttl int) error {
	lease, err := c.client.Grant(ctx, int64(ttl))
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}

	_, err = c.client.Put(ctx, nodePrefix+nodeID, "ONLINE", clientv3.WithLease(lease.ID))
	if err != nil {
		return fmt.Errorf("failed to put node key: %w", err)
	}
	return nil
}

// GetActiveNodes lists all nodes whose lease has not expired.
func (c *EtcdCoordinator) GetActiveNodes(ctx context.Context) ([]string, error) {
	resp, err := c.client.Get(ctx, nodePrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	var nodes []string
	for _, kv := range resp.Kvs {
		nodes = append(nodes, strings.TrimPrefix(string(kv.Key), nodePrefix))
	}
	return nodes, nil
}
