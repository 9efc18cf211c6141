package planner

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultSaveDelay is how long the scheduler waits after the last request
// before running the save.
const DefaultSaveDelay = 5 * time.Second

// Task is a unit of work run by the Scheduler.
type Task func(ctx context.Context) error

// Scheduler coalesces rapid requests into a single delayed task.
// It has one pending slot: Schedule replaces whatever is pending and restarts
// the delay, so only the most recent task within the window runs.
// Tasks never run concurrently with each other.
type Scheduler struct {
	delay time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	pending  Task
	gen      uint64
	stopped  bool
	inflight []*flight

	// run serializes task execution so a flush and a timer firing at the same
	// moment never run two tasks concurrently.
	run sync.Mutex
}

// flight tracks one taken task until it returns.
type flight struct {
	done chan struct{}
	err  error
}

// NewScheduler returns a Scheduler that waits delay after the last Schedule
// call. A non-positive delay falls back to DefaultSaveDelay.
func NewScheduler(delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Scheduler{delay: delay}
}

// Schedule replaces the pending task with task and restarts the delay.
// It returns false if the scheduler has been stopped.
func (s *Scheduler) Schedule(task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.pending = task
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
	return true
}

// Flush runs the pending task on the calling goroutine and returns its error.
// With nothing pending it waits for a task the timer already started and
// returns that task's error, or nil if none is running. A cancelled ctx stops
// the wait but not the task.
func (s *Scheduler) Flush(ctx context.Context) error {
	task, f := s.take(0, false)
	if task == nil {
		return s.wait(ctx)
	}
	return s.exec(ctx, task, f)
}

// Stop cancels the pending task and rejects further Schedule calls.
// A task already running is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

// fire is the timer callback. A timer that lost the race against a newer
// Schedule (or a Flush) finds a different generation and does nothing.
func (s *Scheduler) fire(gen uint64) {
	task, f := s.take(gen, true)
	if task == nil {
		return
	}
	// The task records its own failures.
	_ = s.exec(context.Background(), task, f)
}

// take removes and returns the pending task and registers it as in flight.
// When matchGen is set the task is only returned if it still belongs to
// generation gen.
func (s *Scheduler) take(gen uint64, matchGen bool) (Task, *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || (matchGen && gen != s.gen) {
		return nil, nil
	}
	task := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	f := &flight{done: make(chan struct{})}
	s.inflight = append(s.inflight, f)
	return task, f
}

func (s *Scheduler) exec(ctx context.Context, task Task, f *flight) error {
	s.run.Lock()
	defer s.run.Unlock()

	f.err = task(ctx)
	close(f.done)

	s.mu.Lock()
	s.inflight = slices.DeleteFunc(s.inflight, func(g *flight) bool { return g == f })
	s.mu.Unlock()
	return f.err
}

// wait blocks until every task taken so far has returned and reports the
// error of the most recently taken one.
func (s *Scheduler) wait(ctx context.Context) error {
	s.mu.Lock()
	flights := slices.Clone(s.inflight)
	s.mu.Unlock()

	var err error
	for _, f := range flights {
		select {
		case <-f.done:
			err = f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
