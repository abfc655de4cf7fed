package pool

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/soldatov-s/go-cqlpool/shard"
)

const (
	reasonUnavailable = "unavailable"
	reasonBusy        = "busy"
	reasonTimeout     = "timeout"
	reasonShutdown    = "shutdown"
)

// BorrowOptions are the options of one borrow.
type BorrowOptions struct {
	// Timeout is the maximum time a borrow waits in the queue. Zero fails
	// at once when no connection is available.
	Timeout time.Duration
	// MaxQueueSize bounds the number of queued borrows of the pool. Zero
	// disables queueing.
	MaxQueueSize int
	// Token routes the borrow to the shard owning it. Without a token a
	// shard is picked at random.
	Token shard.Token
}

// Borrow borrows a connection and waits for it. If ctx is done first the
// borrow is abandoned, a connection delivered concurrently goes back to
// the pool. The connection must be given back with Return.
func (p *Pool) Borrow(ctx context.Context, opts BorrowOptions) (*Conn, error) {
	f := p.BorrowAsync(opts)

	select {
	case <-f.Done():
		return f.Result()
	case <-ctx.Done():
		if !f.fail(ctx.Err()) {
			if c, err := f.Result(); err == nil {
				p.Return(c)
			}
		}
		return nil, errors.Wrap(ctx.Err(), "borrow")
	}
}

// BorrowAsync borrows a connection without blocking. The returned future
// is settled at once when a connection has a free request slot, otherwise
// the borrow is queued until a connection is returned or created, its
// timeout elapses or the pool closes.
func (p *Pool) BorrowAsync(opts BorrowOptions) *Future {
	switch phase := p.Phase(); phase {
	case PhaseReady:
	case PhaseClosing:
		return p.failBorrow(reasonShutdown, p.shutdownError())
	default:
		return p.failBorrow(reasonUnavailable, &UnavailableError{Address: p.address, Phase: phase})
	}

	shardID := p.probe(p.pickShard(opts.Token.Valid(), opts.Token.Value()))
	b := p.buckets[shardID]

	// Read scheduled before the open list: a finished creation is in the
	// list before it leaves the counter, so the sum is never short.
	scheduled := int(b.scheduled.Load())
	handles := b.openHandles()

	if len(handles) == 0 {
		if !p.reconnect.CanReconnectNow() {
			return p.failBorrow(reasonUnavailable, &UnavailableError{Address: p.address, Phase: PhaseReady, Refused: true})
		}

		if p.perShardCore == 0 {
			p.maybeSpawnNewConnection(shardID)
		} else if b.scheduled.CompareAndSwap(0, int32(p.perShardCore)) {
			for i := 0; i < p.perShardCore; i++ {
				p.submit(shardID)
			}
		}

		return p.enqueue(opts, b)
	}

	var leastBusy *Conn
	minInFlight := int32(math.MaxInt32)
	for _, h := range handles {
		c := p.arena.get(h)
		if c == nil {
			continue
		}
		if inFlight := c.inFlight.Load(); inFlight < minInFlight {
			minInFlight = inFlight
			leastBusy = c
		}
	}

	if leastBusy == nil {
		if p.isClosed() {
			return p.failBorrow(reasonShutdown, p.shutdownError())
		}
		// The shard lost its connections since the list was read, the
		// creation path serves the queue.
		return p.enqueue(opts, b)
	}

	if !leastBusy.tryAcquire(p.maxInFlight(leastBusy)) {
		return p.enqueue(opts, b)
	}

	totalInFlight := p.countBorrow()

	connectionCount := len(handles) + scheduled
	if connectionCount < p.perShardCore {
		p.maybeSpawnNewConnection(shardID)
	} else if connectionCount < p.perShardMax {
		// Add a connection if we fill the first n-1 connections and almost
		// fill the last one.
		currentCapacity := (connectionCount-1)*p.opts.MaxRequestsPerConnection + p.opts.NewConnectionThreshold
		if totalInFlight > currentCapacity {
			p.maybeSpawnNewConnection(shardID)
		}
	}

	f := newFuture()
	p.deliver(f, leastBusy, true)

	return f
}

// probe returns the first shard from shardID onwards that has open
// connections, shardID itself when all are empty. Serving from another
// shard schedules a creation for the empty one.
func (p *Pool) probe(shardID int) int {
	if p.buckets[shardID].openLen() > 0 {
		return shardID
	}

	for i := 1; i < p.shardCount; i++ {
		candidate := (shardID + i) % p.shardCount
		if p.buckets[candidate].openLen() > 0 {
			p.maybeSpawnNewConnection(shardID)
			return candidate
		}
	}

	return shardID
}

func (p *Pool) enqueue(opts BorrowOptions, b *bucket) *Future {
	if opts.Timeout <= 0 || opts.MaxQueueSize <= 0 {
		return p.failBorrow(reasonBusy, &BusyError{Address: p.address})
	}

	for {
		count := p.pendingBorrowCount.Load()
		if int(count) >= opts.MaxQueueSize {
			return p.failBorrow(reasonBusy, &BusyError{Address: p.address, QueueSize: opts.MaxQueueSize})
		}
		if p.pendingBorrowCount.CompareAndSwap(count, count+1) {
			break
		}
	}

	f := newFuture()
	f.dequeued = func() { p.prunePending(b) }
	f.timer = p.clock.AfterFunc(opts.Timeout, func() {
		if f.expire(&BusyError{Address: p.address, Timeout: opts.Timeout}) {
			p.borrowErrors.WithLabelValues(reasonTimeout).Inc()
		}
	}, "pool", "borrow")

	if err := b.pending.Put(f); err != nil {
		p.pendingBorrowCount.Dec()
		f.fail(p.shutdownError())
		return f
	}

	// We might have raced with close, it has no effect if close already
	// failed the borrow.
	if p.Phase() == PhaseClosing {
		f.fail(p.shutdownError())
		return f
	}

	// A connection returned between the saturation check and the Put saw
	// an empty queue.
	p.redispatch(b)

	return f
}

// prunePending drops the settled borrows at the head of b's queue. A
// settled borrow keeps its place in the pending count until it leaves the
// queue, so the queue never holds more borrows than the count allows.
func (p *Pool) prunePending(b *bucket) {
	if n := b.pruneSettled(); n > 0 {
		p.pendingBorrowCount.Sub(int32(n))
	}
}

// redispatch offers the queued borrows of b to every open connection of b.
func (p *Pool) redispatch(b *bucket) {
	for _, h := range b.openHandles() {
		if b.pending.Empty() {
			return
		}
		if c := p.arena.get(h); c != nil && c.State() == StateOpen {
			p.dequeue(c)
		}
	}
}

// deliver hands c to f once c uses the pool keyspace. counted is set for
// synchronous borrows, which already hold a request slot in the pool total.
func (p *Pool) deliver(f *Future, c *Conn, counted bool) {
	keyspace := p.keyspace.Load()
	if c.keyspace.Load() == keyspace {
		p.hand(f, c, counted)
		return
	}

	ok := p.goTracked(func() {
		if err := c.conn.SetKeyspace(p.ctx, keyspace); err != nil {
			f.fail(errors.Wrapf(err, "set keyspace %s", keyspace))
			p.unreserve(c, counted)
			return
		}

		c.keyspace.Store(keyspace)
		p.hand(f, c, counted)
	})
	if !ok {
		f.fail(p.shutdownError())
		p.unreserve(c, counted)
	}
}

func (p *Pool) hand(f *Future, c *Conn, counted bool) {
	if !f.complete(c) {
		p.unreserve(c, counted)
		return
	}

	if !counted {
		p.countBorrow()
	}
}

// unreserve gives back a request slot that never reached a borrower.
func (p *Pool) unreserve(c *Conn, counted bool) {
	if counted {
		p.Return(c)
		return
	}

	c.inFlight.Dec()
}

func (p *Pool) countBorrow() int {
	totalInFlight := p.totalInFlight.Inc()
	for {
		oldMax := p.maxTotalInFlight.Load()
		if totalInFlight <= oldMax || p.maxTotalInFlight.CompareAndSwap(oldMax, totalInFlight) {
			break
		}
	}

	return int(totalInFlight)
}

func (p *Pool) failBorrow(reason string, err error) *Future {
	p.borrowErrors.WithLabelValues(reason).Inc()
	return failedFuture(err)
}
