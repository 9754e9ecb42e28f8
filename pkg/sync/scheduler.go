// ABOUTME: Tick-based task scheduler
// ABOUTME: Runs typed callbacks when their due tick arrives, in due order
package sync

import (
	"container/heap"
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// TaskKind identifies what a scheduled task does
type TaskKind int

const (
	// TaskFreeUnused sweeps finished mixer channels from the engine side
	TaskFreeUnused TaskKind = iota
	// TaskPoll is a generic periodic engine poll
	TaskPoll
	// TaskRobotFeed pushes pending robot packets into the mixer
	TaskRobotFeed
	// TaskDriftSample samples robot AV drift
	TaskDriftSample
	// TaskStatus publishes a status snapshot
	TaskStatus
)

func (k TaskKind) String() string {
	switch k {
	case TaskFreeUnused:
		return "free-unused"
	case TaskPoll:
		return "poll"
	case TaskRobotFeed:
		return "robot-feed"
	case TaskDriftSample:
		return "drift-sample"
	case TaskStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Task is one scheduled callback
type Task struct {
	Kind   TaskKind
	Due    uint32
	Period uint32
	Run    func()

	seq uint64
}

// SchedulerStats tracks scheduler activity
type SchedulerStats struct {
	Scheduled int64
	Ran       int64
	Cancelled int64
}

// Scheduler runs tasks on tick boundaries
type Scheduler struct {
	mu    sync.Mutex
	clock Clock
	queue *TaskQueue
	seq   uint64
	stats SchedulerStats
}

// NewScheduler creates an empty scheduler
func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{
		clock: clock,
		queue: NewTaskQueue(),
	}
}

// After schedules fn to run once, delay ticks from now
func (s *Scheduler) After(kind TaskKind, delay uint32, fn func()) {
	s.push(&Task{Kind: kind, Due: s.clock.Ticks() + delay, Run: fn})
}

// Every schedules fn to run every period ticks, starting one period from now
func (s *Scheduler) Every(kind TaskKind, period uint32, fn func()) {
	if period == 0 {
		period = 1
	}
	s.push(&Task{Kind: kind, Due: s.clock.Ticks() + period, Period: period, Run: fn})
}

func (s *Scheduler) push(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t.seq = s.seq
	s.stats.Scheduled++
	heap.Push(s.queue, t)
}

// Cancel removes every queued task of the given kind
func (s *Scheduler) Cancel(kind TaskKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.queue.items[:0]
	for _, t := range s.queue.items {
		if t.Kind == kind {
			s.stats.Cancelled++
			continue
		}
		kept = append(kept, t)
	}
	s.queue.items = kept
	heap.Init(s.queue)
}

// Poll runs every task that is due. Callbacks run without the scheduler
// lock held so they may schedule further work.
func (s *Scheduler) Poll() int {
	now := s.clock.Ticks()
	ran := 0

	for {
		s.mu.Lock()
		if s.queue.Len() == 0 || int32(now-s.queue.Peek().Due) < 0 {
			s.mu.Unlock()
			return ran
		}
		t := heap.Pop(s.queue).(*Task)
		if t.Period > 0 {
			next := *t
			next.Due = t.Due + t.Period
			if int32(now-next.Due) >= 0 {
				// fell behind; skip missed periods instead of bursting
				next.Due = now + t.Period
			}
			s.seq++
			next.seq = s.seq
			heap.Push(s.queue, &next)
		}
		s.stats.Ran++
		s.mu.Unlock()

		t.Run()
		ran++
	}
}

// Run polls once per tick until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	log.Debug("scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Debug("scheduler stopped")
			return nil
		case <-ticker.C:
			s.Poll()
		}
	}
}

// Pending returns the number of queued tasks
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// TaskQueue is a priority queue of tasks ordered by due tick
type TaskQueue struct {
	items []*Task
}

func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{}
	heap.Init(q)
	return q
}

// Implement heap.Interface
func (q *TaskQueue) Len() int { return len(q.items) }

func (q *TaskQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Due != b.Due {
		return int32(a.Due-b.Due) < 0
	}
	return a.seq < b.seq
}

func (q *TaskQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *TaskQueue) Push(x interface{}) {
	q.items = append(q.items, x.(*Task))
}

func (q *TaskQueue) Pop() interface{} {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

func (q *TaskQueue) Peek() *Task {
	return q.items[0]
}
