package service

import (
	"container/list"
	"slices"
	"sync"
	"time"

	"github.com/okian/tokscope/internal/domain/model"
)

// jobEntry is a job plus what the worker needs to compute insights.
type jobEntry struct {
	job   model.Job
	items []model.Item
	elem  *list.Element
}

// jobRegistry keeps every live job and up to max terminal ones; the oldest
// terminal jobs are evicted first.
type jobRegistry struct {
	mu       sync.RWMutex
	jobs     map[string]*jobEntry
	terminal *list.List
	max      int
}

func newJobRegistry(max int) *jobRegistry {
	return &jobRegistry{
		jobs:     map[string]*jobEntry{},
		terminal: list.New(),
		max:      max,
	}
}

func (r *jobRegistry) add(job model.Job, items []model.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = &jobEntry{job: job, items: items}
}

func (r *jobRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.jobs[id]; ok {
		if e.elem != nil {
			r.terminal.Remove(e.elem)
		}
		delete(r.jobs, id)
	}
}

// get returns a copy safe to hand out.
func (r *jobRegistry) get(id string) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	job := e.job
	job.Results = slices.Clone(e.job.Results)
	return job, true
}

func (r *jobRegistry) itemsOf(id string) []model.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.jobs[id]; ok {
		return e.items
	}
	return nil
}

// update applies fn to a job under the lock. It reports false for unknown ids.
func (r *jobRegistry) update(id string, fn func(*model.Job)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok {
		return false
	}
	fn(&e.job)
	if e.job.Status.Terminal() && e.elem == nil {
		e.items = nil
		e.elem = r.terminal.PushBack(id)
		r.evict()
	}
	return true
}

// failQueued fails every job that never left the queue and returns their ids.
func (r *jobRegistry) failQueued(reason string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, e := range r.jobs {
		if e.job.Status != model.StatusQueued {
			continue
		}
		e.job.Status = model.StatusFailed
		e.job.Error = reason
		e.job.FinishedAt = now()
		e.items = nil
		e.elem = r.terminal.PushBack(id)
		ids = append(ids, id)
	}
	r.evict()
	return ids
}

func (r *jobRegistry) evict() {
	for r.terminal.Len() > r.max {
		oldest := r.terminal.Front()
		id := oldest.Value.(string)
		r.terminal.Remove(oldest)
		delete(r.jobs, id)
	}
}

func (r *jobRegistry) countByStatus() map[model.Status]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[model.Status]int{}
	for _, e := range r.jobs {
		out[e.job.Status]++
	}
	return out
}

func now() time.Time { return time.Now().UTC() }
