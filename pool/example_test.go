package pool_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/soldatov-s/go-cqlpool/config"
	"github.com/soldatov-s/go-cqlpool/health"
	"github.com/soldatov-s/go-cqlpool/log"
	"github.com/soldatov-s/go-cqlpool/pool"
	"github.com/soldatov-s/go-cqlpool/pool/driver"
	"github.com/soldatov-s/go-cqlpool/shard"
)

type refusingDialer struct {
	calls atomic.Int32
}

func (d *refusingDialer) Dial(context.Context, int, int) (driver.Conn, error) {
	d.calls.Inc()
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestPool_BreakerRefusesReconnection(t *testing.T) {
	ctx := context.Background()
	const address = "10.0.0.2:9042"

	dialer := &refusingDialer{}
	breaker := health.NewBreaker(ctx, address, &health.Config{MaxFailures: 2, OpenTimeout: time.Hour})

	p, err := pool.New(ctx, &pool.Deps{
		Address:   address,
		Dialer:    breaker.Dialer(dialer),
		Reconnect: breaker,
	}, &pool.Options{Lazy: true})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Init(ctx, nil))

	// Every borrow on the empty pool schedules a creation until the node is
	// refused.
	require.Eventually(t, func() bool {
		_, err := p.BorrowAsync(pool.BorrowOptions{}).Result()
		return errors.Is(err, pool.ErrPoolUnavailable)
	}, 2*time.Second, 5*time.Millisecond)

	_, err = p.BorrowAsync(pool.BorrowOptions{}).Result()
	var unavailable *pool.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.True(t, unavailable.Refused)
	assert.Equal(t, int32(2), dialer.calls.Load())
	assert.False(t, breaker.CanReconnectNow())
}

type exampleConn struct {
	shardID int
}

func (c *exampleConn) ShardID() int                              { return c.shardID }
func (c *exampleConn) MaxAvailableStreams() int                  { return 32768 }
func (c *exampleConn) SetKeyspace(context.Context, string) error { return nil }
func (c *exampleConn) Close() error                              { return nil }

func Example() {
	cfg, err := config.Load(config.DefaultPrefix)
	if err != nil {
		panic(err)
	}

	cfg.Logger.Level = "error"
	ctx, err := log.NewContextByConfig(context.Background(), &cfg.Logger)
	if err != nil {
		panic(err)
	}

	// Sharding parameters as reported by the node in its SUPPORTED message.
	params := map[string][]string{
		shard.ParamShard:             {"0"},
		shard.ParamShardsCount:       {"2"},
		shard.ParamPartitioner:       {shard.Murmur3Partitioner},
		shard.ParamShardingAlgorithm: {shard.BiasedTokenRoundRobin},
		shard.ParamIgnoreMSB:         {"12"},
	}
	conn, err := shard.Parse(params)
	if err != nil {
		panic(err)
	}

	const address = "10.0.0.3:9042"
	breaker := health.NewBreaker(ctx, address, &cfg.Breaker)
	dialer := driver.DialerFunc(func(_ context.Context, shardID, _ int) (driver.Conn, error) {
		return &exampleConn{shardID: shardID}, nil
	})

	p, err := pool.New(ctx, &pool.Deps{
		Address:   address,
		Dialer:    breaker.Dialer(dialer),
		Sharding:  conn.Info,
		Reconnect: breaker,
	}, &cfg.Pool)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	if err := p.Init(ctx, nil); err != nil {
		panic(err)
	}
	p.StartCleaner(ctx, 0)

	c, err := p.Borrow(ctx, pool.BorrowOptions{
		Timeout:      time.Second,
		MaxQueueSize: 256,
		Token:        shard.NewToken(-42),
	})
	if err != nil {
		panic(err)
	}
	defer p.Return(c)

	fmt.Println(c.ShardID() < conn.Info.ShardsCount())
	// Output: true
}
