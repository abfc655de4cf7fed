// Package pool is a shard-aware connection pool to a single database node.
//
// Connections are multiplexed: a borrow reserves one request slot on a
// connection, many borrowers share a connection at once. The pool grows a
// shard before its connections saturate, trashes connections it does not
// need any more and resurrects trashed ones when the load comes back.
package pool

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/coder/quartz"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/soldatov-s/go-cqlpool/base"
	"github.com/soldatov-s/go-cqlpool/log"
	"github.com/soldatov-s/go-cqlpool/pool/driver"
)

// maxSimultaneousCreation limits creations scheduled by the growth
// heuristic per shard. Bursts for empty shards and core top-ups bypass it.
const maxSimultaneousCreation = 1

// Deps are the collaborators of a pool.
type Deps struct {
	// Address of the node, used in errors, logs and metric labels.
	Address string
	Dialer  driver.Dialer
	// Sharding of the node, nil when the node is not sharded.
	Sharding driver.ShardInfo
	// Reconnect is the node-level reconnection predicate. Default: always
	// reconnect.
	Reconnect driver.ReconnectPolicy
	// Clock drives borrow timeouts, idle deadlines and the cleaner. Default:
	// the real clock.
	Clock quartz.Clock
}

// Pool is a pool of connections to one node. It's safe for concurrent use
// by multiple goroutines.
type Pool struct {
	address   string
	opts      *Options
	dialer    driver.Dialer
	sharding  driver.ShardInfo
	reconnect driver.ReconnectPolicy
	clock     quartz.Clock
	logger    *zerolog.Logger

	shardCount        int
	perShardCore      int
	perShardMax       int
	minAllowedStreams int
	shardDialAttempts int

	phase       atomic.Int32
	initStarted atomic.Bool
	buckets     []*bucket
	arena       *arena

	open               atomic.Int32
	totalInFlight      atomic.Int32
	maxTotalInFlight   atomic.Int32
	pendingBorrowCount atomic.Int32
	keyspace           atomic.String

	// ctx is cancelled on close, it bounds dials and keyspace switches.
	ctx    context.Context
	cancel context.CancelFunc
	// Used to signal the need for new connections. Goroutines running
	// connectionOpener read shard ids from it.
	openerCh chan int
	workers  sync.WaitGroup

	tasksMu sync.Mutex
	closing bool
	tasks   sync.WaitGroup

	closeFuture atomic.Pointer[CloseFuture]

	metrics      *base.MetricsStorage
	checks       *base.CheckStorage
	borrowErrors *prometheus.CounterVec
	dials        prometheus.Counter
	dialErrors   prometheus.Counter
}

// New creates a pool and starts its connection openers. The pool accepts
// borrows once Init has succeeded.
func New(ctx context.Context, deps *Deps, opts *Options) (*Pool, error) {
	if deps == nil || deps.Dialer == nil {
		return nil, errors.Wrap(ErrInvalidOptions, "dialer is required")
	}

	if opts == nil {
		opts = &Options{}
	}
	opts = opts.SetDefault()
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate options")
	}

	shardCount := 1
	if deps.Sharding != nil {
		shardCount = deps.Sharding.ShardsCount()
		if shardCount < 1 {
			return nil, errors.Wrapf(ErrInvalidOptions, "shards count %d", shardCount)
		}
	}

	p := &Pool{
		address:           deps.Address,
		opts:              opts,
		dialer:            deps.Dialer,
		sharding:          deps.Sharding,
		reconnect:         deps.Reconnect,
		clock:             deps.Clock,
		shardCount:        shardCount,
		perShardCore:      ceilDiv(opts.CoreConnectionsPerHost, shardCount),
		minAllowedStreams: opts.MaxRequestsPerConnection * 3 / 4,
		shardDialAttempts: opts.MaxShardDialAttempts,
		buckets:           make([]*bucket, shardCount),
		arena:             &arena{},
		metrics:           base.NewMetricsStorage(),
		checks:            base.NewCheckStorage(),
	}

	p.perShardMax = ceilDiv(opts.MaxConnectionsPerHost, shardCount)
	if p.perShardMax < p.perShardCore {
		p.perShardMax = p.perShardCore
	}
	if p.shardDialAttempts == 0 {
		p.shardDialAttempts = shardCount * shardDialAttemptsPerShard
	}
	if p.reconnect == nil {
		p.reconnect = driver.AlwaysReconnect{}
	}
	if p.clock == nil {
		p.clock = quartz.NewReal()
	}

	p.logger = log.ComponentLogger(ctx, "pool", &log.Field{Name: "address", Value: deps.Address})

	for i := range p.buckets {
		p.buckets[i] = newBucket(i)
	}

	if err := p.buildMetrics(); err != nil {
		return nil, errors.Wrap(err, "build metrics")
	}
	if err := p.buildChecks(); err != nil {
		return nil, errors.Wrap(err, "build checks")
	}

	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	p.openerCh = make(chan int, opts.MaxConnectionsPerHost+shardCount*p.perShardCore)
	for i := 0; i < opts.CreationWorkers; i++ {
		p.workers.Add(1)
		go p.connectionOpener()
	}

	return p, nil
}

// Runs in a separate goroutine, opens new connections when requested.
func (p *Pool) connectionOpener() {
	defer p.workers.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case shardID := <-p.openerCh:
			p.runConnectionTask(shardID)
		}
	}
}

func (p *Pool) runConnectionTask(shardID int) {
	p.addConnectionIfUnderMaximum(shardID)
	p.buckets[shardID].scheduled.Dec()
}

// submit hands a creation already counted in the shard's scheduled counter
// to the openers. It never blocks: when the openers are saturated the task
// gets its own goroutine.
func (p *Pool) submit(shardID int) {
	select {
	case p.openerCh <- shardID:
	default:
		if !p.goTracked(func() { p.runConnectionTask(shardID) }) {
			p.buckets[shardID].scheduled.Dec()
		}
	}
}

// goTracked runs fn in a goroutine that Close waits for. It returns false
// once the pool is closing.
func (p *Pool) goTracked(fn func()) bool {
	p.tasksMu.Lock()
	if p.closing {
		p.tasksMu.Unlock()
		return false
	}
	p.tasks.Add(1)
	p.tasksMu.Unlock()

	go func() {
		defer p.tasks.Done()
		fn()
	}()

	return true
}

func (p *Pool) Address() string {
	return p.address
}

func (p *Pool) Phase() Phase {
	return Phase(p.phase.Load())
}

func (p *Pool) isClosed() bool {
	return p.closeFuture.Load() != nil
}

// Opened returns the number of open connections.
func (p *Pool) Opened() int {
	return int(p.open.Load())
}

// Trashed returns the number of trashed connections waiting for cleanup or
// resurrection.
func (p *Pool) Trashed() int {
	size := 0
	for _, b := range p.buckets {
		size += b.trashLen()
	}

	return size
}

// InFlight returns the number of borrowed request slots.
func (p *Pool) InFlight() int {
	return int(p.totalInFlight.Load())
}

// PendingBorrows returns the number of borrows in the shard queues. A
// settled borrow counts until it leaves its queue.
func (p *Pool) PendingBorrows() int {
	return int(p.pendingBorrowCount.Load())
}

// SetKeyspace sets the keyspace of the pool. Connections switch to it on
// their next borrow.
func (p *Pool) SetKeyspace(keyspace string) {
	p.keyspace.Store(keyspace)
}

func (p *Pool) Keyspace() string {
	return p.keyspace.Load()
}

// register puts a fresh transport connection into the arena.
func (p *Pool) register(conn driver.Conn, keyspace string, state State) *Conn {
	c := newConn(conn, keyspace, state)
	c.handle = p.arena.insert(c)

	return c
}

func (p *Pool) owns(c *Conn) bool {
	return p.arena.get(c.handle) == c
}

// discard closes c and frees its arena slot.
func (p *Pool) discard(c *Conn) {
	if err := c.close(); err != nil {
		p.logger.Debug().Err(err).Int("shard", c.shardID).Msg("close connection")
	}
	p.arena.release(c.handle)
}

func (p *Pool) maxInFlight(c *Conn) int {
	streams := c.conn.MaxAvailableStreams()
	if streams < p.opts.MaxRequestsPerConnection {
		return streams
	}

	return p.opts.MaxRequestsPerConnection
}

func (p *Pool) dialShardCount() int {
	if p.sharding == nil {
		return 0
	}

	return p.shardCount
}

func (p *Pool) pickShard(hasToken bool, token int64) int {
	if p.sharding == nil || p.shardCount == 1 {
		return 0
	}

	if !hasToken {
		return rand.IntN(p.shardCount)
	}

	shardID := p.sharding.ShardID(token)
	if shardID < 0 || shardID >= p.shardCount {
		shardID = ((shardID % p.shardCount) + p.shardCount) % p.shardCount
	}

	return shardID
}

func (p *Pool) shutdownError() error {
	return errors.Wrap(ErrPoolShutdown, p.address)
}
