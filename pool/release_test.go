package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOf(c *Conn) *fakeConn {
	return c.Driver().(*fakeConn)
}

func TestReturn_ReplacesExhaustedConnection(t *testing.T) {
	dialer := newFakeDialer()
	p := newReadyPool(t, &Deps{Dialer: dialer}, &Options{CoreConnectionsPerHost: 1, MaxConnectionsPerHost: 2})

	c := borrowNow(t, p, BorrowOptions{})
	fakeOf(c).streams.Store(100)
	p.Return(c)

	assert.Equal(t, StateTrashed, c.State())
	require.Eventually(t, func() bool { return p.Opened() == 1 && dialer.dials() == 2 }, waitFor, tick)
	waitCreations(t, p)
	assert.Equal(t, 1, p.Trashed())

	replacement := borrowNow(t, p, BorrowOptions{})
	assert.NotSame(t, c, replacement)
	p.Return(replacement)

	// A replaced connection is never resurrected and goes at the next cleanup.
	p.Cleanup(time.Now())
	assert.Zero(t, p.Trashed())
	assert.True(t, fakeOf(c).isClosed())
	assert.False(t, p.owns(c))
}

func TestReturn_KeepsExhaustedConnectionWhenRefused(t *testing.T) {
	policy := &switchPolicy{}
	p := newReadyPool(t, &Deps{Dialer: newFakeDialer(), Reconnect: policy}, &Options{CoreConnectionsPerHost: 1})

	c := borrowNow(t, p, BorrowOptions{})
	fakeOf(c).streams.Store(100)
	policy.refuse.Store(true)
	p.Return(c)

	assert.Equal(t, StateOpen, c.State())
	assert.Equal(t, 1, p.Opened())
	assert.Zero(t, p.Trashed())
}

func TestReturn_ServesPendingBorrowOfSameShard(t *testing.T) {
	p := newReadyPool(t, &Deps{Dialer: newFakeDialer(), Sharding: &fixedShards{count: 2}},
		&Options{CoreConnectionsPerHost: 2, MaxConnectionsPerHost: 2, MaxRequestsPerConnection: 1})

	held := make([]*Conn, 0, 2)
	for _, b := range p.buckets {
		c := p.arena.get(b.openHandles()[0])
		require.True(t, c.tryAcquire(1))
		p.countBorrow()
		held = append(held, c)
	}

	f := p.BorrowAsync(BorrowOptions{Timeout: time.Minute, MaxQueueSize: 1})
	require.Equal(t, 1, p.PendingBorrows())

	shardID := -1
	for _, b := range p.buckets {
		if !b.pending.Empty() {
			shardID = b.id
		}
	}
	require.NotEqual(t, -1, shardID)

	// A connection of the other shard does not serve the queue.
	p.Return(held[1-shardID])
	assert.Equal(t, 1, p.PendingBorrows())

	p.Return(held[shardID])
	c, err := f.Result()
	require.NoError(t, err)
	assert.Same(t, held[shardID], c)
	p.Return(c)
	assert.Zero(t, p.InFlight())
}

func TestOnConnectionDefunct(t *testing.T) {
	p := newReadyPool(t, &Deps{Dialer: newFakeDialer()}, &Options{CoreConnectionsPerHost: 2})

	c := borrowNow(t, p, BorrowOptions{})
	p.OnConnectionDefunct(c)

	assert.Equal(t, StateGone, c.State())
	assert.Equal(t, 1, p.Opened())
	assert.True(t, fakeOf(c).isClosed())
	assert.False(t, p.owns(c))

	// The borrower still gives it back.
	p.Return(c)
	assert.Zero(t, p.InFlight())
	assert.Equal(t, 1, p.Opened())

	// Reported twice.
	p.OnConnectionDefunct(c)
	assert.Equal(t, 1, p.Opened())

	p.EnsureCoreConnections()
	assert.Eventually(t, func() bool { return p.Opened() == 2 }, waitFor, tick)
}

func TestOnConnectionDefunct_Trashed(t *testing.T) {
	p := newReadyPool(t, &Deps{Dialer: newFakeDialer()}, &Options{CoreConnectionsPerHost: 1})

	c := borrowNow(t, p, BorrowOptions{})
	fakeOf(c).streams.Store(1)
	p.Return(c)
	require.Equal(t, 1, p.Trashed())

	p.OnConnectionDefunct(c)
	assert.Zero(t, p.Trashed())
	assert.True(t, fakeOf(c).isClosed())
	assert.Equal(t, StateGone, c.State())
}

func TestReturn_AfterClose(t *testing.T) {
	p := newReadyPool(t, &Deps{Dialer: newFakeDialer()}, nil)

	c := borrowNow(t, p, BorrowOptions{})
	require.NoError(t, p.Close())

	p.Return(c)
	assert.Zero(t, p.InFlight())
	assert.True(t, fakeOf(c).isClosed())
}

func TestPool_OpenedNeverExceedsMax(t *testing.T) {
	const maxConns = 3

	p := newReadyPool(t, &Deps{Dialer: newFakeDialer()}, &Options{
		CoreConnectionsPerHost:   1,
		MaxConnectionsPerHost:    maxConns,
		MaxRequestsPerConnection: 2,
		NewConnectionThreshold:   1,
	})

	done := make(chan struct{})
	violations := make(chan int, 1)
	go func() {
		for {
			select {
			case <-done:
				close(violations)
				return
			default:
			}
			if opened := p.Opened(); opened > maxConns {
				violations <- opened
				close(violations)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c, err := p.BorrowAsync(queued()).Result()
				if err != nil {
					continue
				}
				p.Return(c)
			}
		}()
	}
	wg.Wait()
	close(done)

	for opened := range violations {
		t.Fatalf("opened %d connections, max is %d", opened, maxConns)
	}
	assert.Zero(t, p.InFlight())
	assert.Zero(t, p.PendingBorrows())
	assert.LessOrEqual(t, p.Opened(), maxConns)
}
