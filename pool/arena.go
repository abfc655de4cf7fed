package pool

import "sync"

// Handle references a pooled connection. A handle outlives its connection
// safely: once the slot is released the handle resolves to nothing.
type Handle struct {
	index uint32
	gen   uint32
}

type arenaSlot struct {
	gen  uint32
	conn *Conn
}

// arena owns the pooled connections. Buckets keep handles, never pointers,
// so a connection released by one path can not be resurrected by another
// holding a stale reference.
type arena struct {
	mu    sync.RWMutex
	slots []arenaSlot
	free  []uint32
	live  int
}

func (a *arena) insert(c *Conn) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, arenaSlot{gen: 1})
		idx = uint32(len(a.slots) - 1)
	}

	a.slots[idx].conn = c
	a.live++

	return Handle{index: idx, gen: a.slots[idx].gen}
}

func (a *arena) get(h Handle) *Conn {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if int(h.index) >= len(a.slots) {
		return nil
	}

	slot := a.slots[h.index]
	if slot.gen != h.gen {
		return nil
	}

	return slot.conn
}

// release frees the slot of h. It returns false for a stale handle.
func (a *arena) release(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if int(h.index) >= len(a.slots) || a.slots[h.index].gen != h.gen {
		return false
	}

	a.slots[h.index].conn = nil
	a.slots[h.index].gen++
	a.free = append(a.free, h.index)
	a.live--

	return true
}

func (a *arena) len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.live
}
