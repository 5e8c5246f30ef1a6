// Package job defines the unit of scheduling: a single client-submitted
// command and the state needed to run it to completion on the simulated CPU.
package job

import (
	"bufio"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind classifies a Job for the policy selector (§4.3 of the scheduler
// design). Shell jobs are short, non-preemptive, and always outrank Program
// jobs. Program jobs advertise a burst and are scheduled SRJF-style.
type Kind int

const (
	// Shell is a short built-in or external command with no declared burst.
	// It runs to completion in a single dispatch and never observes
	// preemption once running.
	Shell Kind = iota
	// Program is a simulated CPU workload with a declared duration,
	// dispatched in quanta and preemptible between output lines.
	Program
)

func (k Kind) String() string {
	if k == Shell {
		return "shell"
	}
	return "program"
}

// Status is the lifecycle state of a Job.
type Status int

const (
	// Waiting indicates the Job is enqueued but has not yet been dispatched,
	// or has yielded the CPU and is waiting for its next dispatch.
	Waiting Status = iota
	// Running indicates the Job currently holds the simulated CPU.
	Running
	// Finished indicates the Job has completed. The client handler removes
	// it from the ready queue after the Executor sets this status.
	Finished
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// DefaultProgramDuration is the burst assumed for a Program job whose
// command line carries no explicit duration argument.
const DefaultProgramDuration = 10

// ClientChannel is the opaque handle a Job uses to deliver output back to
// the client that submitted it. Implementations must tolerate being called
// after the underlying connection has gone away (§5's disconnect handling):
// a failed Send abandons forwarding for the remainder of the Job but never
// aborts execution bookkeeping.
type ClientChannel interface {
	// Send writes one payload frame to the client. An empty payload is a
	// valid terminator frame.
	Send(payload []byte) error
}

// New creates a Job for the given command. total is only meaningful for
// Program jobs; Shell jobs ignore it and are always treated as having
// unknown (highest priority) duration.
func New(id int, channel ClientChannel, command string, kind Kind, total int) *Job {
	j := &Job{
		ID:       id,
		TraceID:  uuid.New(),
		Channel:  channel,
		Command:  command,
		Kind:     kind,
		status:   Waiting,
		turn:     make(chan struct{}, 1),
	}
	if kind == Program {
		j.TotalTime = total
		j.RemainingTime.Store(int32(total))
	} else {
		j.TotalTime = -1
		j.RemainingTime.Store(-1)
	}
	return j
}

// Job is the unit of scheduling: one command submitted by one client.
type Job struct {
	// ID is a stable, 1-based integer assigned at connection time. It is the
	// identifier used on the wire, in the Gantt timeline, and in log lines.
	ID int
	// TraceID is a supplemental correlation identifier. It is printed only in
	// the Job's "created" log line; the other per-Job log lines carry the
	// integer ID alone. It never appears on the wire or in the Gantt string.
	TraceID uuid.UUID
	// Channel delivers output back to the submitting client.
	Channel ClientChannel
	// Command is the original command text, opaque to the scheduler.
	Command string
	// Kind classifies the Job for the policy selector.
	Kind Kind

	// TotalTime is the advertised PROGRAM burst, or -1 for SHELL. It is set
	// once at construction and never mutated afterward.
	TotalTime int
	// RemainingTime decrements as a PROGRAM job produces output units. It is
	// read by the Dispatcher/preemption controller (under the scheduler lock)
	// and written by the Executor (while the scheduler lock is released for
	// the duration of a quantum), so it is atomic rather than a plain int,
	// the same treatment PreemptFlag gets for the same reason.
	RemainingTime atomic.Int32
	// RoundsRun counts dispatches; it determines the next quantum size.
	RoundsRun int

	// PreemptFlag is set by the preemption controller and observed
	// cooperatively by the Executor between whole output units. It is read
	// and written without the scheduler lock.
	PreemptFlag atomic.Bool

	// Started is true once the child process has been spawned for the first
	// time.
	Started bool

	mu     sync.Mutex
	status Status

	// Cmd is the spawned child process, present once Started is true.
	Cmd *exec.Cmd
	// Stdout is the child's stdout pipe for a Program job, opened on first
	// dispatch. It is owned exclusively by the client-handler goroutine
	// running this Job's quanta; the scheduler lock never guards it.
	Stdout io.ReadCloser
	// Scanner reads Stdout one line at a time; each line is one simulated
	// unit of work.
	Scanner *bufio.Scanner

	// turn is signaled by the Dispatcher to grant this Job the CPU. The
	// owning client-handler goroutine blocks receiving from it.
	turn chan struct{}
}

// Status returns the Job's current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// SetStatus updates the Job's lifecycle state.
func (j *Job) SetStatus(s Status) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

// Grant signals the Job that it has been dispatched. The Dispatcher calls it
// after marking the Job as current and releasing the scheduler lock; the
// buffered turn channel holds the grant until WaitTurn receives it.
func (j *Job) Grant() {
	select {
	case j.turn <- struct{}{}:
	default:
		// Already granted and not yet consumed; nothing further to do. This
		// should not happen under correct Dispatcher/handler pairing, but a
		// buffered send that would block must never stall the scheduler
		// loop.
	}
}

// WaitTurn blocks until the Dispatcher grants this Job the CPU.
func (j *Job) WaitTurn() {
	<-j.turn
}
