package feedback

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Clock is the time source of a Scheduler.
type Clock interface {
	Now() time.Time
	// Timer fires once after d. The returned func stops it.
	Timer(d time.Duration) (<-chan time.Time, func() bool)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Timer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Task is a one-shot action due at a fixed time.
type Task struct {
	At    time.Time
	Fn    func(ctx context.Context)
	seq   uint64
	index int
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].At.Equal(h[j].At) {
		return h[i].seq < h[j].seq
	}
	return h[i].At.Before(h[j].At)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Scheduler runs one-shot tasks in fire-time order. Tasks due at the same
// instant run in the order they were scheduled. Scheduled tasks cannot be
// canceled.
type Scheduler struct {
	mu    sync.Mutex
	clock Clock
	tasks taskHeap
	seq   uint64
	wake  chan struct{}
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}

	return &Scheduler{clock: clock, wake: make(chan struct{}, 1)}
}

// Schedule queues fn to run delay from now.
func (s *Scheduler) Schedule(delay time.Duration, fn func(ctx context.Context)) *Task {
	s.mu.Lock()
	s.seq++
	t := &Task{At: s.clock.Now().Add(delay), Fn: fn, seq: s.seq}
	heap.Push(&s.tasks, t)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return t
}

// Pending returns the number of tasks not yet run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

// RunDue runs every task due at or before now and returns how many ran.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	ran := 0
	for {
		s.mu.Lock()
		if len(s.tasks) == 0 || s.tasks[0].At.After(now) {
			s.mu.Unlock()
			return ran
		}
		t := heap.Pop(&s.tasks).(*Task)
		s.mu.Unlock()

		t.Fn(ctx)
		ran++
	}
}

// next returns the wait until the earliest task, or false when idle.
func (s *Scheduler) next() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return 0, false
	}

	return s.tasks[0].At.Sub(s.clock.Now()), true
}

// Run fires tasks as they fall due until ctx is done. Tasks still pending at
// that point are dropped.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.RunDue(ctx, s.clock.Now())

		wait, ok := s.next()
		var (
			fire <-chan time.Time
			stop = func() bool { return false }
		)
		if ok {
			fire, stop = s.clock.Timer(wait)
		}

		select {
		case <-ctx.Done():
			stop()
			return nil
		case <-s.wake:
			stop()
		case <-fire:
		}
	}
}
