// Package queue implements the priority+time ordered set of pending
// jobs described in spec.md §4.3: a container/heap binary heap ordered
// by (−priority, next_execution, JobId) plus a hash index by JobId for
// O(1) lookup, removal, and duplicate detection.
package queue

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
	"github.com/rae-systems/scheduler/internal/parser"
)

// entry is one heap slot. nextExecution is nil for disabled jobs (never
// due) and for event/pattern jobs (always due) — alwaysDue disambiguates
// the two, per the design notes' single-predicate rule.
type entry struct {
	job           *job.Job
	nextExecution *time.Time
	alwaysDue     bool
	index         int
}

// heapSlice implements container/heap.Interface over *entry.
type heapSlice []*entry

func (h heapSlice) Len() int { return len(h) }

func (h heapSlice) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.job.Priority != b.job.Priority {
		return a.job.Priority > b.job.Priority // higher priority first
	}
	at, bt := a.nextExecution, b.nextExecution
	switch {
	case at == nil && bt == nil:
		return a.job.ID < b.job.ID
	case at == nil:
		return false // nil (no time key) sorts last
	case bt == nil:
		return true
	case !at.Equal(*bt):
		return at.Before(*bt)
	default:
		return a.job.ID < b.job.ID
	}
}

func (h heapSlice) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *heapSlice) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *heapSlice) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is the scheduler's priority-ordered pending-job set, guarded by
// its own lock — per spec.md §5, no lock here ever spans into another
// component.
type Queue struct {
	mu    sync.RWMutex
	heap  heapSlice
	index map[job.ID]*entry
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{index: make(map[job.ID]*entry)}
}

func makeEntry(j *job.Job, now time.Time) (*entry, error) {
	if !j.Enabled {
		return &entry{job: j, nextExecution: nil, alwaysDue: false}, nil
	}
	// A file-event trigger is dispatched directly by the watcher package
	// when its path changes, not by the tick loop polling the queue —
	// giving it an always-due heap entry here would double-dispatch it
	// once a second on top of every real file event.
	if j.Schedule.Event != nil && j.Schedule.Event.EventType.IsFileEvent() {
		return &entry{job: j, nextExecution: nil, alwaysDue: false}, nil
	}
	if j.Schedule.IsUnpredictable() {
		return &entry{job: j, nextExecution: nil, alwaysDue: true}, nil
	}
	next, err := parser.NextExecution(j.Schedule, now)
	if err != nil {
		return nil, err
	}
	return &entry{job: j, nextExecution: next, alwaysDue: false}, nil
}

// AddJob inserts j, computing its next execution via the parser. It
// fails with ErrAlreadyExists if the job's id is already present.
func (q *Queue) AddJob(j *job.Job) error {
	return q.AddJobAt(j, time.Now().UTC())
}

// AddJobAt is AddJob with an explicit "now" for deterministic tests.
func (q *Queue) AddJobAt(j *job.Job, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.index[j.ID]; exists {
		return fmt.Errorf("%w: job %s already exists in queue", job.ErrAlreadyExists, j.ID)
	}
	e, err := makeEntry(j, now)
	if err != nil {
		return err
	}
	heap.Push(&q.heap, e)
	q.index[j.ID] = e
	return nil
}

// RemoveJob removes id from both indices. Returns ErrNotFound if absent.
func (q *Queue) RemoveJob(id job.ID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(id)
}

func (q *Queue) removeLocked(id job.ID) error {
	e, ok := q.index[id]
	if !ok {
		return fmt.Errorf("%w: job %s", job.ErrNotFound, id)
	}
	heap.Remove(&q.heap, e.index)
	delete(q.index, id)
	return nil
}

// UpdateJob is equivalent to remove + add: it preserves identity but
// recomputes the next-execution key from the given job's current state.
func (q *Queue) UpdateJob(j *job.Job) error {
	return q.UpdateJobAt(j, time.Now().UTC())
}

// UpdateJobAt is UpdateJob with an explicit "now" for deterministic tests.
func (q *Queue) UpdateJobAt(j *job.Job, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.index[j.ID]; ok {
		if err := q.removeLocked(j.ID); err != nil {
			return err
		}
	}
	e, err := makeEntry(j, now)
	if err != nil {
		return err
	}
	heap.Push(&q.heap, e)
	q.index[j.ID] = e
	return nil
}

func (e *entry) isDue(now time.Time) bool {
	if e.alwaysDue {
		return true
	}
	if e.nextExecution == nil {
		return false
	}
	return !e.nextExecution.After(now)
}

// PopNextDue returns the highest-priority job whose next_execution <=
// now, or whose trigger is event/pattern. A disabled job sits in the
// heap with its original priority and a nil, non-alwaysDue entry (see
// makeEntry) — it can never become due, so if it reaches the top it is
// evicted rather than left blocking every job behind it, the same way
// the original get_next_job drops None-keyed entries instead of
// stopping on them. If the top of the heap (after evicting any
// never-due entries) is a cron/at job still in the future, returns
// (nil, false) — the heap's priority-then-time order guarantees
// nothing further back can be due either under the same priority, but
// a lower-priority job with an earlier due time is, by design, still
// skipped: priority dominates.
func (q *Queue) PopNextDue(now time.Time) (*job.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.heap.Len() > 0 {
		top := q.heap[0]
		if top.nextExecution == nil && !top.alwaysDue {
			heap.Remove(&q.heap, top.index)
			delete(q.index, top.job.ID)
			continue
		}
		if !top.isDue(now) {
			return nil, false
		}
		heap.Remove(&q.heap, top.index)
		delete(q.index, top.job.ID)
		return top.job, true
	}
	return nil, false
}

// GetDueJobs non-destructively lists every currently-due job, in
// dispatch order.
func (q *Queue) GetDueJobs(now time.Time) []*job.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	due := make(heapSlice, 0, q.heap.Len())
	for _, e := range q.heap {
		if e.isDue(now) {
			due = append(due, e)
		}
	}
	// due is already heap-ordered relative to the full heap but not
	// necessarily relative to itself after filtering; re-sort via the
	// same Less to preserve the priority/time/id tie-break contract.
	sortByLess(due)

	jobs := make([]*job.Job, len(due))
	for i, e := range due {
		jobs[i] = e.job
	}
	return jobs
}

func sortByLess(s heapSlice) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s.Less(j, j-1); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Len returns the number of jobs currently in the queue.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.heap.Len()
}

// Contains reports whether id is present in the queue.
func (q *Queue) Contains(id job.ID) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.index[id]
	return ok
}
