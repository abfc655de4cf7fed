package pool

import (
	"github.com/pkg/errors"

	"github.com/soldatov-s/go-cqlpool/pool/driver"
)

// maybeSpawnNewConnection schedules one creation on shardID unless one is
// already scheduled there.
func (p *Pool) maybeSpawnNewConnection(shardID int) {
	if p.isClosed() || !p.reconnect.CanReconnectNow() {
		return
	}

	b := p.buckets[shardID]
	for {
		inCreation := b.scheduled.Load()
		if inCreation >= maxSimultaneousCreation {
			return
		}
		if b.scheduled.CompareAndSwap(inCreation, inCreation+1) {
			break
		}
	}

	p.submit(shardID)
}

// EnsureCoreConnections schedules creations for every shard below its core
// target. It is idempotent: creations already scheduled count towards the
// target.
func (p *Pool) EnsureCoreConnections() {
	if p.isClosed() || p.Phase() != PhaseReady || !p.reconnect.CanReconnectNow() {
		return
	}

	for _, b := range p.buckets {
		scheduled := int(b.scheduled.Load())
		for n := b.openLen() + scheduled; n < p.perShardCore; n++ {
			b.scheduled.Inc()
			p.submit(b.id)
		}
	}
}

// addConnectionIfUnderMaximum adds a connection to shardID, resurrected
// from the trash when possible, and serves the shard queue with it.
func (p *Pool) addConnectionIfUnderMaximum(shardID int) bool {
	// First, make sure we don't cross the allowed limit of open connections.
	for {
		opened := p.open.Load()
		if int(opened) >= p.opts.MaxConnectionsPerHost {
			return false
		}
		if p.open.CompareAndSwap(opened, opened+1) {
			break
		}
	}

	if p.Phase() != PhaseReady {
		p.open.Dec()
		return false
	}

	b := p.buckets[shardID]
	c := p.tryResurrectFromTrash(b)
	if c == nil {
		if !p.reconnect.CanReconnectNow() {
			p.open.Dec()
			return false
		}

		p.logger.Debug().Int("shard", shardID).Msg("creating new connection on busy pool")
		conn, err := p.dialForShard(shardID)
		if err != nil {
			p.open.Dec()
			if driver.IsFatal(err) {
				p.logger.Error().Err(err).Str("kind", driver.KindOf(err).String()).
					Msg("error while creating additional connection")
			} else {
				p.logger.Debug().Err(err).Int("shard", shardID).Msg("connection error while creating additional connection")
			}
			return false
		}

		c = p.register(conn, p.keyspace.Load(), StateOpen)
	}

	b.mu.Lock()
	// We might have raced with close or a defunct report.
	if p.isClosed() || (!c.casState(StateResurrecting, StateOpen) && c.State() != StateOpen) {
		b.mu.Unlock()
		p.open.Dec()
		p.discard(c)
		return false
	}
	b.addOpenLocked(c.handle)
	b.mu.Unlock()

	p.dequeue(c)

	return true
}

// dialForShard dials until a connection lands on shardID. Connections on
// other shards are closed.
func (p *Pool) dialForShard(shardID int) (driver.Conn, error) {
	for attempt := 0; attempt < p.shardDialAttempts; attempt++ {
		conn, err := p.dialer.Dial(p.ctx, shardID, p.dialShardCount())
		p.dials.Inc()
		if err != nil {
			p.dialErrors.Inc()
			return nil, errors.Wrap(err, "dial")
		}

		if conn.ShardID() != shardID {
			_ = conn.Close()
			continue
		}

		if keyspace := p.keyspace.Load(); keyspace != "" {
			if err := conn.SetKeyspace(p.ctx, keyspace); err != nil {
				_ = conn.Close()
				return nil, errors.Wrapf(err, "set keyspace %s", keyspace)
			}
		}

		return conn, nil
	}

	p.dialErrors.Inc()
	return nil, errors.Wrapf(driver.ErrWrongShard, "shard %d after %d attempts", shardID, p.shardDialAttempts)
}
