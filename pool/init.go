package pool

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/soldatov-s/go-cqlpool/pool/driver"
)

// initState collects the outcome of the initial dials.
type initState struct {
	once sync.Once
	done chan struct{}
	err  error

	running atomic.Int32
	// redials is the budget of extra dials for connections that landed on
	// an already full shard.
	redials atomic.Int32
	lastErr atomic.Error
}

func (s *initState) resolve(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Init opens the core connections. It returns once the first connection
// joined the pool, the remaining ones keep opening in the background.
//
// reused is an optional connection from a previous reconnection attempt to
// this node, it joins the pool before any dial.
func (p *Pool) Init(ctx context.Context, reused driver.Conn) error {
	if !p.initStarted.CompareAndSwap(false, true) {
		return ErrInitCalled
	}

	toCreate := p.shardCount * p.perShardCore
	slots := make([]int, 0, toCreate)
	for _, b := range p.buckets {
		b.scheduled.Store(int32(p.perShardCore))
		for i := 0; i < p.perShardCore; i++ {
			slots = append(slots, b.id)
		}
	}

	if reused != nil {
		if err := p.joinReused(reused); err != nil {
			return err
		}

		shardID := reused.ShardID()
		for i, slot := range slots {
			if slot == shardID {
				slots = append(slots[:i], slots[i+1:]...)
				p.buckets[shardID].scheduled.Dec()
				break
			}
		}
	}

	if len(slots) == 0 {
		if p.phase.CompareAndSwap(int32(PhaseInitializing), int32(PhaseReady)) || p.Phase() == PhaseReady {
			p.logger.Debug().Msg("pool is ready without initial connections")
			return nil
		}
		return p.shutdownError()
	}

	st := &initState{done: make(chan struct{})}
	st.running.Store(int32(len(slots)))
	st.redials.Store(int32(toCreate))

	for _, shardID := range slots {
		shardID := shardID
		if !p.goTracked(func() { p.initSlot(st, shardID) }) {
			p.buckets[shardID].scheduled.Dec()
			p.finishSlot(st)
		}
	}

	select {
	case <-st.done:
		return st.err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for init")
	}
}

func (p *Pool) joinReused(conn driver.Conn) error {
	shardID := conn.ShardID()
	if shardID < 0 || shardID >= p.shardCount {
		_ = conn.Close()
		return errors.Errorf("reused connection on shard %d of %d", shardID, p.shardCount)
	}

	b := p.buckets[shardID]
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.isClosed() {
		_ = conn.Close()
		return ErrPoolClosedDuringInit
	}

	c := p.register(conn, "", StateOpen)
	b.addOpenLocked(c.handle)
	p.open.Inc()
	p.phase.CompareAndSwap(int32(PhaseInitializing), int32(PhaseReady))

	return nil
}

// initSlot opens one initial connection. hint is the shard the slot was
// created for.
func (p *Pool) initSlot(st *initState, hint int) {
	defer p.finishSlot(st)
	defer p.buckets[hint].scheduled.Dec()

	shardID := hint
	for {
		conn, err := p.dialer.Dial(p.ctx, shardID, p.dialShardCount())
		p.dials.Inc()
		if err != nil {
			p.dialErrors.Inc()
			if driver.IsFatal(err) {
				p.logger.Error().Err(err).Str("kind", driver.KindOf(err).String()).Msg("initial connection failed")
				p.phase.CompareAndSwap(int32(PhaseInitializing), int32(PhaseInitFailed))
				st.resolve(errors.Wrap(err, "open connection"))
				return
			}

			p.logger.Warn().Err(err).Int("shard", shardID).Msg("error creating connection")
			st.lastErr.Store(err)
			return
		}

		keyspace := p.keyspace.Load()
		if keyspace != "" {
			if err := conn.SetKeyspace(p.ctx, keyspace); err != nil {
				_ = conn.Close()
				p.logger.Warn().Err(err).Str("keyspace", keyspace).Msg("set keyspace on new connection")
				st.lastErr.Store(err)
				return
			}
		}

		joined, closed := p.joinInit(conn, keyspace)
		switch {
		case closed:
			_ = conn.Close()
			st.resolve(ErrPoolClosedDuringInit)
			return
		case joined:
			if p.Phase() == PhaseReady {
				st.resolve(nil)
			}
			return
		}

		// The connection landed on a full shard.
		_ = conn.Close()
		if st.redials.Dec() < 0 {
			return
		}

		shardID = p.underTargetShard()
		if shardID < 0 {
			return
		}
	}
}

func (p *Pool) finishSlot(st *initState) {
	if st.running.Dec() > 0 {
		return
	}

	switch {
	case p.Phase() == PhaseClosing:
		st.resolve(ErrPoolClosedDuringInit)
	case p.phase.CompareAndSwap(int32(PhaseInitializing), int32(PhaseInitFailed)):
		err := st.lastErr.Load()
		if err == nil {
			err = ErrNoConnection
		}
		st.resolve(errors.Wrap(err, "open connection"))
	default:
		st.resolve(nil)
	}
}

// joinInit adds conn to its shard if the shard is below its core target.
// The first connection to join flips the pool to ready.
func (p *Pool) joinInit(conn driver.Conn, keyspace string) (joined, closed bool) {
	shardID := conn.ShardID()
	if shardID < 0 || shardID >= p.shardCount {
		return false, false
	}

	b := p.buckets[shardID]
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.isClosed() {
		return false, true
	}

	if b.openLen() >= p.perShardCore {
		return false, false
	}

	c := p.register(conn, keyspace, StateOpen)
	b.addOpenLocked(c.handle)
	p.open.Inc()
	if p.phase.CompareAndSwap(int32(PhaseInitializing), int32(PhaseReady)) {
		p.logger.Debug().Int("shard", shardID).Msg("pool is ready")
	}

	return true, false
}

func (p *Pool) underTargetShard() int {
	for _, b := range p.buckets {
		if b.openLen() < p.perShardCore {
			return b.id
		}
	}

	return -1
}
