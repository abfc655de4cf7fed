package pool

import "math"

// Return gives back a connection obtained from Borrow or BorrowAsync. It
// must be called exactly once per successful borrow.
func (p *Pool) Return(c *Conn) {
	c.inFlight.Dec()
	p.totalInFlight.Dec()

	if p.isClosed() {
		if err := c.close(); err != nil {
			p.logger.Debug().Err(err).Msg("close returned connection")
		}
		return
	}

	// Defunct connections already left the pool.
	if !p.owns(c) {
		return
	}

	switch c.State() {
	case StateGone, StateTrashed:
		return
	}

	if c.conn.MaxAvailableStreams() < p.minAllowedStreams {
		p.replace(c)
		return
	}

	p.dequeue(c)
}

// dequeue serves the pending borrows of c's shard with c while c has free
// request slots.
func (p *Pool) dequeue(c *Conn) {
	b := p.buckets[c.shardID]

	for !b.pending.Empty() {
		if !c.tryAcquire(p.maxInFlight(c)) {
			// Connection is full again, it is revisited on its next return.
			return
		}

		f := b.poll()
		if f == nil {
			// Another goroutine has emptied the queue since our last check.
			c.inFlight.Dec()
			return
		}
		p.pendingBorrowCount.Dec()

		if f.isSettled() {
			// Timed out or abandoned while queued.
			c.inFlight.Dec()
			continue
		}

		p.deliver(f, c, false)
	}
}

// replace trashes c for good and schedules a new connection on its shard.
// c keeps serving its borrowers until the next cleanup closes it.
func (p *Pool) replace(c *Conn) {
	canReconnect := p.reconnect.CanReconnectNow()
	if !canReconnect && int(p.open.Load()) <= p.opts.CoreConnectionsPerHost {
		// Nothing could take its place.
		return
	}

	b := p.buckets[c.shardID]
	b.mu.Lock()
	if !c.casState(StateOpen, StateTrashed) {
		b.mu.Unlock()
		return
	}
	p.open.Dec()
	c.deadline.Store(math.MinInt64)
	b.removeOpenLocked(c.handle)
	b.trash[c.handle] = struct{}{}
	b.mu.Unlock()

	p.logger.Trace().Int("shard", c.shardID).
		Int("max_available_streams", c.conn.MaxAvailableStreams()).
		Msg("replacing connection")

	if canReconnect && !p.isClosed() {
		b.scheduled.Inc()
		p.submit(c.shardID)
	}
}

// OnConnectionDefunct removes a connection reported dead by the transport.
// It is not replaced at once: either the node goes down and the pool with
// it, or new connections should wait anyway.
func (p *Pool) OnConnectionDefunct(c *Conn) {
	if !p.owns(c) {
		return
	}

	b := p.buckets[c.shardID]
	b.mu.Lock()
	switch {
	case c.casState(StateOpen, StateGone):
		p.open.Dec()
		b.removeOpenLocked(c.handle)
	case c.casState(StateTrashed, StateGone):
		delete(b.trash, c.handle)
	case c.casState(StateResurrecting, StateGone):
		// The creation path sees the state and drops it.
		b.mu.Unlock()
		return
	default:
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	p.logger.Debug().Int("shard", c.shardID).Msg("connection defunct")
	p.discard(c)
}
