package pool

import "time"

// trash retires c from the open list of b, keeping it around for
// resurrection until its idle deadline. It never takes the pool or the
// shard below its core target.
func (p *Pool) trash(b *bucket, c *Conn, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openLen() <= p.perShardCore {
		return false
	}

	if !c.casState(StateOpen, StateTrashed) {
		return false
	}

	for {
		opened := p.open.Load()
		if int(opened) <= p.opts.CoreConnectionsPerHost {
			c.state.Store(int32(StateOpen))
			return false
		}
		if p.open.CompareAndSwap(opened, opened-1) {
			break
		}
	}

	p.logger.Trace().Int("shard", b.id).Int("in_flight", c.InFlight()).Msg("trashing connection")

	c.deadline.Store(now.Add(p.opts.IdleTimeout).UnixNano())
	b.removeOpenLocked(c.handle)
	b.trash[c.handle] = struct{}{}

	return true
}

// tryResurrectFromTrash takes the trashed connection of b with the latest
// idle deadline that still has enough streams.
func (p *Pool) tryResurrectFromTrash(b *bucket) *Conn {
	highestDeadline := p.clock.Now().UnixNano()

	b.mu.Lock()
	defer b.mu.Unlock()

	var chosen *Conn
	for h := range b.trash {
		c := p.arena.get(h)
		if c == nil {
			delete(b.trash, h)
			continue
		}

		if c.State() != StateTrashed {
			continue
		}

		if deadline := c.deadline.Load(); deadline > highestDeadline &&
			c.conn.MaxAvailableStreams() > p.minAllowedStreams {
			chosen = c
			highestDeadline = deadline
		}
	}

	if chosen == nil || !chosen.casState(StateTrashed, StateResurrecting) {
		return nil
	}

	p.logger.Trace().Int("shard", b.id).Msg("resurrecting connection")
	delete(b.trash, chosen.handle)

	return chosen
}
