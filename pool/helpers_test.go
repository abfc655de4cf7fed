package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/soldatov-s/go-cqlpool/pool/driver"
)

const (
	testAddress = "10.0.0.1:9042"
	waitFor     = 2 * time.Second
	tick        = 5 * time.Millisecond
)

type fakeConn struct {
	shardID  int
	streams  atomic.Int32
	closed   atomic.Int32
	keyspace atomic.String
}

func newFakeConn(shardID int) *fakeConn {
	c := &fakeConn{shardID: shardID}
	c.streams.Store(32768)

	return c
}

func (c *fakeConn) ShardID() int { return c.shardID }

func (c *fakeConn) MaxAvailableStreams() int { return int(c.streams.Load()) }

func (c *fakeConn) SetKeyspace(_ context.Context, keyspace string) error {
	c.keyspace.Store(keyspace)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed.Inc()
	return nil
}

func (c *fakeConn) isClosed() bool {
	return c.closed.Load() > 0
}

// fakeDialer opens fake connections. By default a connection lands on the
// requested shard.
type fakeDialer struct {
	mu    sync.Mutex
	calls map[int]int
	conns []*fakeConn

	// land returns the shard a dial for shardID ends up on.
	land func(shardID int) int
	// fail returns the error of a dial for shardID.
	fail func(shardID int) error
	// gate, when set, blocks every dial until it is closed.
	gate chan struct{}
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{calls: make(map[int]int)}
}

func (d *fakeDialer) Dial(ctx context.Context, shardID, _ int) (driver.Conn, error) {
	d.mu.Lock()
	d.calls[shardID]++
	gate, land, fail := d.gate, d.land, d.fail
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fail != nil {
		if err := fail(shardID); err != nil {
			return nil, err
		}
	}

	target := shardID
	if land != nil {
		target = land(shardID)
	}

	c := newFakeConn(target)
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()

	return c, nil
}

func (d *fakeDialer) setFail(fail func(shardID int) error) {
	d.mu.Lock()
	d.fail = fail
	d.mu.Unlock()
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := 0
	for _, n := range d.calls {
		total += n
	}

	return total
}

func (d *fakeDialer) dialsFor(shardID int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.calls[shardID]
}

func (d *fakeDialer) opened() []*fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*fakeConn(nil), d.conns...)
}

// fixedShards is a ShardInfo with a static token to shard mapping.
type fixedShards struct {
	count int
	route func(token int64) int
}

func (s *fixedShards) ShardsCount() int { return s.count }

func (s *fixedShards) ShardID(token int64) int {
	if s.route != nil {
		return s.route(token)
	}
	return 0
}

type switchPolicy struct {
	refuse atomic.Bool
}

func (p *switchPolicy) CanReconnectNow() bool {
	return !p.refuse.Load()
}

// newTestPool creates a pool closed at the end of the test.
func newTestPool(t *testing.T, deps *Deps, opts *Options) *Pool {
	t.Helper()

	if deps.Address == "" {
		deps.Address = testAddress
	}

	p, err := New(context.Background(), deps, opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.CloseAsync().Wait(ctx)
	})

	return p
}

// newReadyPool creates a pool and waits until its core connections are
// open.
func newReadyPool(t *testing.T, deps *Deps, opts *Options) *Pool {
	t.Helper()

	p := newTestPool(t, deps, opts)
	require.NoError(t, p.Init(context.Background(), nil))

	core := p.shardCount * p.perShardCore
	require.Eventually(t, func() bool { return p.Opened() == core }, waitFor, tick)
	waitCreations(t, p)

	return p
}

// waitCreations waits until no connection creation is in progress.
func waitCreations(t *testing.T, p *Pool) {
	t.Helper()

	require.Eventually(t, func() bool {
		for _, b := range p.buckets {
			if b.scheduled.Load() != 0 {
				return false
			}
		}
		return true
	}, waitFor, tick)
}

func borrowNow(t *testing.T, p *Pool, opts BorrowOptions) *Conn {
	t.Helper()

	f := p.BorrowAsync(opts)
	select {
	case <-f.Done():
	case <-time.After(waitFor):
		t.Fatal("borrow was not served")
	}

	c, err := f.Result()
	require.NoError(t, err)

	return c
}

func queued() BorrowOptions {
	return BorrowOptions{Timeout: time.Minute, MaxQueueSize: 100}
}
