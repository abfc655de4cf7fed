package pool

import (
	"context"
	"sort"
	"time"
)

// Cleanup trashes connections the recent load does not need and closes
// trashed connections whose idle deadline has passed. It is meant to run
// periodically, see StartCleaner.
func (p *Pool) Cleanup(now time.Time) {
	if p.isClosed() || p.Phase() != PhaseReady {
		return
	}

	p.shrinkIfBelowCapacity(now)
	p.cleanupTrash(now)
}

// StartCleaner runs Cleanup every interval until ctx is done or the pool
// closes. A non-positive interval uses Options.CleanupInterval.
func (p *Pool) StartCleaner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = p.opts.CleanupInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)

	started := p.goTracked(func() {
		defer stop()
		defer cancel()

		w := p.clock.TickerFunc(ctx, interval, func() error {
			p.Cleanup(p.clock.Now())
			return nil
		}, "pool", "cleaner")
		_ = w.Wait()
	})
	if !started {
		stop()
		cancel()
	}
}

// shrinkIfBelowCapacity trashes connections when there are more than the
// peak load since the last cleanup needs.
func (p *Pool) shrinkIfBelowCapacity(now time.Time) {
	currentLoad := int(p.maxTotalInFlight.Swap(p.totalInFlight.Load()))

	maxRequests := p.opts.MaxRequestsPerConnection
	needed := ceilDiv(currentLoad, maxRequests)
	if currentLoad%maxRequests > p.opts.NewConnectionThreshold {
		needed++
	}
	if needed < p.opts.CoreConnectionsPerHost {
		needed = p.opts.CoreConnectionsPerHost
	}

	actual := p.Opened()
	toTrash := actual - needed

	p.logger.Trace().Int("in_flight", currentLoad).Int("needed", needed).
		Int("actual", actual).Int("to_trash", toTrash).Msg("shrink")

	if toTrash <= 0 {
		return
	}

	for _, b := range p.buckets {
		if b.openLen() <= p.perShardCore {
			continue
		}

		for _, c := range p.leastBusyFirst(b) {
			if p.trash(b, c, now) {
				toTrash--
				if toTrash == 0 {
					return
				}
			}
			if b.openLen() <= p.perShardCore {
				break
			}
		}
	}
}

func (p *Pool) leastBusyFirst(b *bucket) []*Conn {
	handles := b.openHandles()
	conns := make([]*Conn, 0, len(handles))
	for _, h := range handles {
		if c := p.arena.get(h); c != nil {
			conns = append(conns, c)
		}
	}

	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].inFlight.Load() < conns[j].inFlight.Load()
	})

	return conns
}

// cleanupTrash closes connections that have been sitting in the trash for
// too long.
func (p *Pool) cleanupTrash(now time.Time) {
	var closing []*Conn

	for _, b := range p.buckets {
		b.mu.Lock()
		for h := range b.trash {
			c := p.arena.get(h)
			if c == nil {
				delete(b.trash, h)
				continue
			}

			if c.deadline.Load() >= now.UnixNano() || !c.casState(StateTrashed, StateGone) {
				continue
			}

			if c.inFlight.Load() != 0 {
				// Idle timeout is far above request timeouts, all requests
				// should have finished by now. Retry on the next cleanup.
				c.state.Store(int32(StateTrashed))
				continue
			}

			delete(b.trash, h)
			closing = append(closing, c)
		}
		b.mu.Unlock()
	}

	for _, c := range closing {
		p.logger.Trace().Int("shard", c.shardID).Msg("cleaning up connection")
		p.discard(c)
	}
}
