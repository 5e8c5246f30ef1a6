// Package policy implements the scheduler's selection rules: priority
// class, anti-monopoly, and Shortest-Remaining-Job-First tie-break. Pick is
// a pure function over a queue snapshot so it can be property-tested in
// isolation from the Dispatcher and Executor.
package policy

import "github.com/samkreter/rshd/internal/rshd/job"

// Pick selects the next Job to dispatch from queue, honoring:
//
//  1. Priority class: any non-finished Shell job preempts all Program jobs
//     and is selected first, earliest-enqueued wins ties.
//  2. Anti-monopoly: among Program jobs, the job matching lastJobID is
//     excluded from consideration unless it is the only candidate left.
//  3. SRJF tie-break: the eligible Program job with the smallest
//     RemainingTime wins; ties broken by earliest-enqueued (queue order).
//
// Pick returns the chosen Job (or nil if nothing is eligible) and the
// lastJobID that should be recorded going forward. Shell selections do not
// update lastJobID.
func Pick(queue []*job.Job, lastJobID int) (*job.Job, int) {
	for _, j := range queue {
		if j.Status() == job.Finished {
			continue
		}
		if j.Kind == job.Shell {
			return j, lastJobID
		}
	}

	var candidates []*job.Job
	for _, j := range queue {
		if j.Status() == job.Finished {
			continue
		}
		candidates = append(candidates, j)
	}

	eligible := candidates
	if len(candidates) > 1 {
		eligible = eligible[:0]
		for _, j := range candidates {
			if j.ID == lastJobID {
				continue
			}
			eligible = append(eligible, j)
		}
	}

	var best *job.Job
	var bestRemaining int32
	for _, j := range eligible {
		remaining := j.RemainingTime.Load()
		if best == nil || remaining < bestRemaining {
			best = j
			bestRemaining = remaining
		}
	}

	if best == nil {
		return nil, lastJobID
	}
	return best, best.ID
}

// ShouldPreempt implements the preemption controller's rule (§4.4): a newly
// enqueued job outranks the running job if it is a Shell job, or if it is a
// shorter Program job. current must be a Program job; callers only invoke
// ShouldPreempt while a Program job holds the CPU.
func ShouldPreempt(current, incoming *job.Job) bool {
	if incoming.Kind == job.Shell {
		return true
	}
	return incoming.RemainingTime.Load() < current.RemainingTime.Load()
}
