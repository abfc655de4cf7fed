package pool

import (
	"sync"

	"github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"
)

// bucket is the state of one node shard. The open list is copy-on-write:
// borrowers scan it without locking, mutations hold mu. A handle is in at
// most one of open and trash.
type bucket struct {
	id int

	mu    sync.Mutex
	open  atomic.Pointer[[]Handle]
	trash map[Handle]struct{}

	pending *queue.Queue
	// scheduled counts connection creations submitted and not finished.
	scheduled atomic.Int32
}

func newBucket(id int) *bucket {
	b := &bucket{
		id:      id,
		trash:   make(map[Handle]struct{}),
		pending: queue.New(0),
	}
	b.open.Store(&[]Handle{})

	return b
}

func (b *bucket) openHandles() []Handle {
	return *b.open.Load()
}

func (b *bucket) openLen() int {
	return len(b.openHandles())
}

func (b *bucket) addOpenLocked(h Handle) {
	old := b.openHandles()
	handles := make([]Handle, 0, len(old)+1)
	handles = append(handles, old...)
	handles = append(handles, h)
	b.open.Store(&handles)
}

func (b *bucket) removeOpenLocked(h Handle) bool {
	old := b.openHandles()
	for i := range old {
		if old[i] != h {
			continue
		}

		handles := make([]Handle, 0, len(old)-1)
		handles = append(handles, old[:i]...)
		handles = append(handles, old[i+1:]...)
		b.open.Store(&handles)

		return true
	}

	return false
}

// takeAllLocked empties both the open list and the trash set.
func (b *bucket) takeAllLocked() (open, trashed []Handle) {
	open = b.openHandles()
	b.open.Store(&[]Handle{})

	for h := range b.trash {
		trashed = append(trashed, h)
	}
	b.trash = make(map[Handle]struct{})

	return open, trashed
}

func (b *bucket) trashLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.trash)
}

// poll removes the oldest pending borrow without blocking. It returns nil
// when the queue is empty or disposed.
func (b *bucket) poll() *Future {
	taken := false
	items, err := b.pending.TakeUntil(func(interface{}) bool {
		if taken {
			return false
		}
		taken = true
		return true
	})
	if err != nil || len(items) == 0 {
		return nil
	}

	f, _ := items[0].(*Future)
	return f
}

// pruneSettled removes the settled borrows at the head of the queue and
// returns how many were removed.
func (b *bucket) pruneSettled() int {
	items, err := b.pending.TakeUntil(func(item interface{}) bool {
		f, ok := item.(*Future)
		return !ok || f.isSettled()
	})
	if err != nil {
		return 0
	}

	return len(items)
}
