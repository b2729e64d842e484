// Package history remembers which feed items have already been reported.
//
// A Tracker keeps a fixed-size window of the most recently added records. New
// records go to the front of the window; once a batch has been absorbed the
// window is trimmed from the back. Re-encountering a remembered record does not
// move it, so eviction order is insertion order, not access order.
package history

import (
	"container/list"
	"sync"

	"github.com/bakkerme/feedwatch/internal/core"
)

// DefaultCapacity is the window size used when New is given no capacity.
const DefaultCapacity = 100

// Tracker is a set of record identities plus their insertion order.
// seen and order always hold the same identities, one entry each.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]*list.Element
	order    *list.List // core.Record values, most recent at the front
}

// New returns an empty Tracker holding at most capacity records; capacity <= 0
// means DefaultCapacity.
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity: capacity,
		seen:     make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// WhatsNew returns the records of batch whose identity is not in the history,
// in batch order, and records them. Only the first occurrence of an identity
// within the batch counts as new.
//
// The window is trimmed after the whole batch is absorbed, so a batch larger
// than the capacity reports records that are evicted by the same call.
func (t *Tracker) WhatsNew(batch []core.Record) []core.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	fresh := make([]core.Record, 0, len(batch))
	for _, record := range batch {
		if _, ok := t.seen[record.Identity]; ok {
			continue
		}
		t.seen[record.Identity] = t.order.PushFront(record)
		fresh = append(fresh, record)
	}
	t.truncate()
	return fresh
}

func (t *Tracker) truncate() {
	for t.order.Len() > t.capacity {
		oldest := t.order.Back()
		if oldest == nil {
			return
		}
		t.order.Remove(oldest)
		delete(t.seen, oldest.Value.(core.Record).Identity)
	}
}

// Contains reports whether identity is remembered. It does not change the
// eviction order.
func (t *Tracker) Contains(identity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[identity]
	return ok
}

// Len returns how many records are remembered.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}

// Capacity returns the maximum number of remembered records.
func (t *Tracker) Capacity() int {
	return t.capacity
}

// Entries returns a copy of the history, most recently added first.
func (t *Tracker) Entries() []core.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.Record, 0, t.order.Len())
	for e := t.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(core.Record))
	}
	return out
}
