// Package scheduler owns the global ready queue and the Dispatcher
// (scheduler loop). It bundles exactly the process-wide mutable state
// spec.md calls out: the queue, cpuBusy, currentJob, and lastJobID, each
// guarded by a single lock per §9's "bundle them into a single Scheduler
// value" design note.
package scheduler

import (
	"context"
	"sync"

	"github.com/samkreter/rshd/internal/rshd/job"
	"github.com/samkreter/rshd/internal/rshd/policy"
	"github.com/samkreter/rshd/internal/rshd/timeline"
)

// New creates a Scheduler instance.
func New() *Scheduler {
	return &Scheduler{
		wake:      make(chan struct{}, 1),
		lastJobID: -1,
		Timeline:  timeline.New(),
	}
}

// Scheduler is the process-wide scheduling state: the ready queue plus the
// bookkeeping the Dispatcher and preemption controller need. Its lifetime is
// the process lifetime; it is constructed before accepting connections.
type Scheduler struct {
	mu sync.Mutex

	queue      []*job.Job
	cpuBusy    bool
	currentJob *job.Job
	lastJobID  int

	wake chan struct{}

	// Timeline accumulates PROGRAM job segments until the queue drains.
	Timeline *timeline.Timeline
}

// Enqueue appends j to the ready queue, runs the preemption controller
// against the currently running job (if any), and wakes the Dispatcher.
func (s *Scheduler) Enqueue(j *job.Job) {
	s.mu.Lock()
	s.queue = append(s.queue, j)

	if s.cpuBusy && s.currentJob != nil && s.currentJob.Kind == job.Program {
		if policy.ShouldPreempt(s.currentJob, j) {
			s.currentJob.PreemptFlag.Store(true)
		}
	}
	s.mu.Unlock()

	s.notify()
}

// Remove unlinks j from the ready queue. It is a no-op if j is absent.
func (s *Scheduler) Remove(j *job.Job) {
	s.mu.Lock()
	for i, q := range s.queue {
		if q == j {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Empty reports whether the ready queue currently holds any Job.
func (s *Scheduler) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) == 0
}

// notify wakes the Dispatcher if it is waiting. The send is non-blocking and
// coalesces: a Dispatcher that hasn't yet consumed a prior wake does not
// need a second one queued up.
func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run is the Dispatcher: a single long-running loop that waits for "queue
// non-empty & CPU free", selects a Job via the policy selector, and grants
// it the CPU. It returns when ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		j := s.tryDispatch()
		if j != nil {
			j.Grant()
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
	}
}

// tryDispatch selects and marks a Job as running under the lock, or returns
// nil if the queue is empty or the CPU is busy.
func (s *Scheduler) tryDispatch() *job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 || s.cpuBusy {
		return nil
	}

	chosen, lastJobID := policy.Pick(s.queue, s.lastJobID)
	if chosen == nil {
		return nil
	}
	s.lastJobID = lastJobID

	s.cpuBusy = true
	s.currentJob = chosen
	return chosen
}

// Yield returns the CPU to the Dispatcher once a Job's quantum has run to
// completion (or the Job finished). It must be called by the same
// goroutine that owns the Job's execution after RunQuantum returns.
func (s *Scheduler) Yield(j *job.Job) {
	s.mu.Lock()
	if s.currentJob == j {
		s.cpuBusy = false
		s.currentJob = nil
	}
	s.mu.Unlock()

	s.notify()
}

// FlushIfEmpty emits and clears the Gantt timeline if the ready queue has
// drained. Called by the client-handler after removing a finished Job, per
// §4.6 step 4.
func (s *Scheduler) FlushIfEmpty() (string, bool) {
	if !s.Empty() {
		return "", false
	}
	gantt := s.Timeline.Flush()
	if gantt == "" {
		return "", false
	}
	return gantt, true
}
