package pool

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// CloseFuture is the shared result of closing a pool.
type CloseFuture struct {
	done chan struct{}
	err  error
}

// Done is closed once every connection of the pool is closed.
func (f *CloseFuture) Done() <-chan struct{} {
	return f.done
}

// Wait waits for the pool to close and returns the first connection close
// error.
func (f *CloseFuture) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for pool close")
	}
}

// CloseAsync closes the pool. Every call returns the same future. Pending
// borrows fail with ErrPoolShutdown, open and trashed connections are
// closed concurrently.
func (p *Pool) CloseAsync() *CloseFuture {
	if f := p.closeFuture.Load(); f != nil {
		return f
	}

	f := &CloseFuture{done: make(chan struct{})}
	if !p.closeFuture.CompareAndSwap(nil, f) {
		// We raced, return the future that was actually set.
		return p.closeFuture.Load()
	}

	p.phase.Store(int32(PhaseClosing))

	p.tasksMu.Lock()
	p.closing = true
	p.tasksMu.Unlock()

	for _, b := range p.buckets {
		disposed := b.pending.Dispose()
		p.pendingBorrowCount.Sub(int32(len(disposed)))
		for _, item := range disposed {
			if pending, ok := item.(*Future); ok {
				pending.fail(p.shutdownError())
			}
		}
	}

	p.cancel()

	var open, trashed []*Conn
	for _, b := range p.buckets {
		b.mu.Lock()
		openHandles, trashHandles := b.takeAllLocked()
		b.mu.Unlock()

		for _, h := range openHandles {
			if c := p.arena.get(h); c != nil {
				open = append(open, c)
			}
		}
		for _, h := range trashHandles {
			if c := p.arena.get(h); c != nil {
				trashed = append(trashed, c)
			}
		}
	}

	p.logger.Debug().Int("open", len(open)).Int("trashed", len(trashed)).Msg("closing pool")

	go func() {
		var g errgroup.Group
		for _, c := range open {
			c := c
			g.Go(func() error {
				err := c.close()
				if c.casState(StateOpen, StateGone) {
					p.open.Dec()
				}
				p.arena.release(c.handle)
				return errors.Wrap(err, "close connection")
			})
		}
		// Some connections in the trash might still be open if they hadn't
		// reached their idle timeout.
		for _, c := range trashed {
			c := c
			g.Go(func() error {
				err := c.close()
				p.arena.release(c.handle)
				return errors.Wrap(err, "close trashed connection")
			})
		}

		f.err = g.Wait()
		p.workers.Wait()
		p.tasks.Wait()
		close(f.done)
	}()

	return f
}

// Close closes the pool and waits for it.
func (p *Pool) Close() error {
	return p.CloseAsync().Wait(context.Background())
}
