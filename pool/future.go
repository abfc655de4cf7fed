package pool

import (
	"github.com/coder/quartz"
	"go.uber.org/atomic"
)

// Future is the result of a borrow. It is settled exactly once, either
// with a connection or with an error.
//
// A Future that could not be served at once is a pending borrow: it waits
// in its shard queue with a timer that fails it when the borrow timeout
// elapses.
type Future struct {
	done    chan struct{}
	settled atomic.Bool
	conn    *Conn
	err     error

	timer *quartz.Timer
	// dequeued runs after the outcome is set and before Done is closed. It
	// drops settled borrows from the head of the shard queue.
	dequeued func()
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func failedFuture(err error) *Future {
	f := newFuture()
	f.settle(nil, err)

	return f
}

// Done is closed once the future is settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result waits for the future and returns its outcome.
func (f *Future) Result() (*Conn, error) {
	<-f.done
	return f.conn, f.err
}

func (f *Future) settle(c *Conn, err error) bool {
	if !f.settled.CompareAndSwap(false, true) {
		return false
	}

	f.conn, f.err = c, err
	if f.dequeued != nil {
		f.dequeued()
	}
	close(f.done)

	return true
}

func (f *Future) complete(c *Conn) bool {
	if !f.settle(c, nil) {
		return false
	}
	f.stopTimer()

	return true
}

func (f *Future) fail(err error) bool {
	if !f.settle(nil, err) {
		return false
	}
	f.stopTimer()

	return true
}

func (f *Future) isSettled() bool {
	return f.settled.Load()
}

// expire is called by the timer itself and must not touch it.
func (f *Future) expire(err error) bool {
	return f.settle(nil, err)
}

func (f *Future) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
	}
}
