// Package dedupe tracks idempotency keys of batch submissions so a retried
// request returns the job it already created.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 10000

// Deduper maps idempotency keys to the job they created.
type Deduper interface {
	// Claim records key for jobID unless it is already held. It returns the
	// holder and false when the key was claimed before.
	Claim(ctx context.Context, key, jobID string) (string, bool)

	// Release forgets key so it can be claimed again. Use it when the job
	// could not be queued.
	Release(ctx context.Context, key string)

	Size() int
}

type entry struct {
	key   string
	jobID string
}

// inMemoryDeduper evicts the oldest key once maxSize is reached. maxSize <= 0
// means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		keys:    map[string]*list.Element{},
		order:   list.New(),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Claim implements Deduper.
func (d *inMemoryDeduper) Claim(_ context.Context, key, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		return el.Value.(entry).jobID, false
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.keys, oldest.Value.(entry).key)
	}
	d.keys[key] = d.order.PushBack(entry{key: key, jobID: jobID})
	return jobID, true
}

// Release implements Deduper.
func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.keys[key]; ok {
		d.order.Remove(el)
		delete(d.keys, key)
	}
}

// Size implements Deduper.
func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
