package pool

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/soldatov-s/go-cqlpool/pool/driver"
)

// Conn is a connection owned by a pool. Borrowers use Driver to send
// requests and hand the Conn back with Pool.Return.
type Conn struct {
	conn    driver.Conn
	shardID int
	handle  Handle

	state    atomic.Int32
	inFlight atomic.Int32
	// deadline is the idle deadline in unix nanoseconds, meaningful only
	// while the connection is trashed.
	deadline atomic.Int64
	keyspace atomic.String

	closeOnce sync.Once
	closeErr  error
}

func newConn(conn driver.Conn, keyspace string, state State) *Conn {
	c := &Conn{
		conn:    conn,
		shardID: conn.ShardID(),
	}
	c.state.Store(int32(state))
	c.keyspace.Store(keyspace)

	return c
}

// Driver returns the transport connection.
func (c *Conn) Driver() driver.Conn {
	return c.conn
}

func (c *Conn) ShardID() int {
	return c.shardID
}

// InFlight returns the number of borrows currently holding the connection.
func (c *Conn) InFlight() int {
	return int(c.inFlight.Load())
}

func (c *Conn) State() State {
	return State(c.state.Load())
}

func (c *Conn) Keyspace() string {
	return c.keyspace.Load()
}

func (c *Conn) casState(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// tryAcquire takes one request slot if fewer than limit are in use.
func (c *Conn) tryAcquire(limit int) bool {
	for {
		inFlight := c.inFlight.Load()
		if int(inFlight) >= limit {
			return false
		}
		if c.inFlight.CompareAndSwap(inFlight, inFlight+1) {
			return true
		}
	}
}

func (c *Conn) close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})

	return c.closeErr
}
