// Package shard knows how a node splits its token ring between shards.
package shard

import (
	"math/bits"
	"strconv"

	"github.com/pkg/errors"
)

// Keys of the node SUPPORTED options that describe sharding.
const (
	ParamShard             = "SCYLLA_SHARD"
	ParamShardsCount       = "SCYLLA_NR_SHARDS"
	ParamPartitioner       = "SCYLLA_PARTITIONER"
	ParamShardingAlgorithm = "SCYLLA_SHARDING_ALGORITHM"
	ParamIgnoreMSB         = "SCYLLA_SHARDING_IGNORE_MSB"
	ParamShardAwarePort    = "SCYLLA_SHARD_AWARE_PORT"

	Murmur3Partitioner           = "org.apache.cassandra.dht.Murmur3Partitioner"
	BiasedTokenRoundRobin        = "biased-token-round-robin"
	tokenBias             uint64 = 1 << 63
)

var (
	ErrNotSharded       = errors.New("node does not report sharding")
	ErrInvalidShardsNum = errors.New("invalid shards count")
)

// Info keeps the data layout of a given node.
type Info struct {
	shardsCount       int
	partitioner       string
	shardingAlgorithm string
	ignoreMSB         uint
	shardAwarePort    int
}

// New returns sharding info for a node running the biased-token-round-robin
// algorithm over the Murmur3 partitioner.
func New(shardsCount, ignoreMSB int) (*Info, error) {
	if shardsCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidShardsNum, "shards count %d", shardsCount)
	}
	if ignoreMSB < 0 || ignoreMSB > 63 {
		return nil, errors.Errorf("invalid ignore msb %d", ignoreMSB)
	}

	return &Info{
		shardsCount:       shardsCount,
		partitioner:       Murmur3Partitioner,
		shardingAlgorithm: BiasedTokenRoundRobin,
		ignoreMSB:         uint(ignoreMSB),
	}, nil
}

func (i *Info) ShardsCount() int {
	return i.shardsCount
}

// ShardID returns the shard owning token. The token is biased to an unsigned
// value, its ignored most significant bits are dropped and the result is
// scaled to the shard count.
func (i *Info) ShardID(token int64) int {
	biased := (uint64(token) ^ tokenBias) << i.ignoreMSB
	hi, _ := bits.Mul64(biased, uint64(i.shardsCount))
	return int(hi)
}

// ShardAwarePort returns the port on which the node lets clients pick the
// shard of a new connection, 0 if the node has none.
func (i *Info) ShardAwarePort() int {
	return i.shardAwarePort
}

func (i *Info) Partitioner() string {
	return i.partitioner
}

func (i *Info) ShardingAlgorithm() string {
	return i.shardingAlgorithm
}

// ConnectionInfo is what one connection learns during its handshake: the
// shard it was assigned to and the sharding of the whole node.
type ConnectionInfo struct {
	ShardID int
	Info    *Info
}

// Parse reads sharding parameters from the SUPPORTED options of a node.
// ErrNotSharded is returned when any required parameter is missing or the
// node uses a partitioner or algorithm this package does not understand.
func Parse(params map[string][]string) (*ConnectionInfo, error) {
	shardID, okShard := parseInt(params, ParamShard)
	shardsCount, okCount := parseInt(params, ParamShardsCount)
	partitioner, okPartitioner := parseString(params, ParamPartitioner)
	algorithm, okAlgorithm := parseString(params, ParamShardingAlgorithm)
	ignoreMSB, okMSB := parseInt(params, ParamIgnoreMSB)

	if !okShard || !okCount || !okPartitioner || !okAlgorithm || !okMSB ||
		partitioner != Murmur3Partitioner || algorithm != BiasedTokenRoundRobin {
		return nil, ErrNotSharded
	}

	info, err := New(shardsCount, ignoreMSB)
	if err != nil {
		return nil, errors.Wrap(err, "new sharding info")
	}

	if port, ok := parseInt(params, ParamShardAwarePort); ok {
		info.shardAwarePort = port
	}

	return &ConnectionInfo{ShardID: shardID, Info: info}, nil
}

func parseString(params map[string][]string, key string) (string, bool) {
	val, ok := params[key]
	if !ok || len(val) != 1 {
		return "", false
	}
	return val[0], true
}

func parseInt(params map[string][]string, key string) (int, bool) {
	s, ok := parseString(params, key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
