// Package driver describes what the connection pool needs from the transport
// layer: a dialer that opens connections to one node, the connections
// themselves and the node-level reconnection predicate.
package driver

//go:generate mockgen -source=driver.go -destination=drivermock/mock_driver.go -package=drivermock

import (
	"context"
)

// Conn is a single multiplexed transport connection to one node.
//
// A Conn is owned by at most one pool at a time. The pool never reads or
// writes frames, it only asks the connection about its shard and its
// remaining stream ids, switches keyspace and closes it.
type Conn interface {
	// ShardID returns the node shard this connection is pinned to. It is
	// assigned during the handshake and never changes.
	ShardID() int
	// MaxAvailableStreams returns how many stream ids the connection can
	// still hand out. It decreases over time when requests time out and
	// their stream ids are never released.
	MaxAvailableStreams() int
	// SetKeyspace switches the connection to the given keyspace.
	SetKeyspace(ctx context.Context, keyspace string) error
	// Close closes the connection. Close should let requests that are
	// already written finish before tearing down the socket. Calling Close
	// more than once is allowed.
	Close() error
}

// A Dialer opens new connections to a single node.
//
// shardID and shardCount are a hint for shard-aware dialing (for example
// through the node's shard-aware port). If shardCount is zero, shard-aware
// dialing is disabled. The returned connection may still land on any shard,
// callers must check Conn.ShardID.
type Dialer interface {
	Dial(ctx context.Context, shardID, shardCount int) (Conn, error)
}

// DialerFunc is an adapter to allow the use of ordinary functions as Dialer.
type DialerFunc func(ctx context.Context, shardID, shardCount int) (Conn, error)

// Dial calls f(ctx, shardID, shardCount).
func (f DialerFunc) Dial(ctx context.Context, shardID, shardCount int) (Conn, error) {
	return f(ctx, shardID, shardCount)
}

// ShardInfo maps routing tokens to node shards.
type ShardInfo interface {
	// ShardsCount returns the number of shards of the node, 1 when the node
	// is not sharded.
	ShardsCount() int
	// ShardID returns the shard owning token, in [0, ShardsCount()).
	ShardID(token int64) int
}

// ReconnectPolicy is the node-level circuit breaker. When CanReconnectNow
// returns false the pool neither opens new connections nor queues borrows.
type ReconnectPolicy interface {
	CanReconnectNow() bool
}

// AlwaysReconnect is a ReconnectPolicy that never refuses.
type AlwaysReconnect struct{}

func (AlwaysReconnect) CanReconnectNow() bool { return true }
