package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkreter/rshd/internal/rshd/job"
	"github.com/samkreter/rshd/internal/rshd/scheduler"
)

type noopChannel struct{}

func (noopChannel) Send([]byte) error { return nil }

func TestScheduler_DispatchesSingleJob(t *testing.T) {
	sched := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	j := job.New(1, noopChannel{}, "ls", job.Shell, -1)
	sched.Enqueue(j)

	select {
	case <-waitGranted(j):
	case <-time.After(time.Second):
		t.Fatal("job was never dispatched")
	}

	j.SetStatus(job.Finished)
	sched.Yield(j)
	sched.Remove(j)

	assert.True(t, sched.Empty())
}

func TestScheduler_NeverRunsTwoJobsAtOnce(t *testing.T) {
	sched := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	p1 := job.New(1, noopChannel{}, "./demo 5", job.Program, 5)
	p2 := job.New(2, noopChannel{}, "./demo 5", job.Program, 5)
	sched.Enqueue(p1)
	sched.Enqueue(p2)

	first, later := mustGrant(t, p1, p2)
	require.NotNil(t, first)

	// Before yielding, the other job must not also receive a grant.
	other := p1
	if first == p1 {
		other = p2
	}
	select {
	case <-later:
		t.Fatal("second job dispatched while CPU busy")
	case <-time.After(50 * time.Millisecond):
	}

	first.SetStatus(job.Finished)
	sched.Yield(first)
	sched.Remove(first)

	select {
	case got := <-later:
		assert.Same(t, other, got)
	case <-time.After(time.Second):
		t.Fatal("second job never dispatched after first yielded")
	}
}

func waitGranted(j *job.Job) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		j.WaitTurn()
		close(done)
	}()
	return done
}

// mustGrant returns the first of candidates to be granted the CPU, plus a
// channel that delivers each later grant to one of the other candidates.
// The goroutines it starts stay blocked on the other candidates' turns, so
// later grants must be observed through that channel.
func mustGrant(t *testing.T, candidates ...*job.Job) (*job.Job, <-chan *job.Job) {
	t.Helper()
	ch := make(chan *job.Job, len(candidates))
	for _, c := range candidates {
		c := c
		go func() {
			c.WaitTurn()
			ch <- c
		}()
	}
	select {
	case j := <-ch:
		return j, ch
	case <-time.After(time.Second):
		t.Fatal("no job was ever dispatched")
		return nil, nil
	}
}
