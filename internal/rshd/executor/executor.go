// Package executor turns a dispatched Job into one quantum of actual
// execution: spawning or resuming a child process, forwarding its output to
// the submitting client, and yielding back to the Dispatcher. This is the
// component spec.md §4.2 names "the Executor".
package executor

import (
	"bufio"
	"errors"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	ierrors "github.com/samkreter/rshd/internal/errors"
	"github.com/samkreter/rshd/internal/rshd/diag"
	"github.com/samkreter/rshd/internal/rshd/job"
	"github.com/samkreter/rshd/internal/rshd/timeline"
)

var errEmptyCommand = errors.New("executor: empty command")

// Executor runs quanta of work for dispatched Jobs against a shared
// diagnostic sink and timeline.
type Executor struct {
	sink     *diag.Sink
	timeline *timeline.Timeline
}

// New creates an Executor.
func New(sink *diag.Sink, tl *timeline.Timeline) *Executor {
	return &Executor{sink: sink, timeline: tl}
}

// RunQuantum executes j for up to quantum simulated time units, per the
// per-kind contract in spec.md §4.2. It never panics on a failing child or
// a disconnected client: both degrade to the Job transitioning toward
// Finished.
func (e *Executor) RunQuantum(j *job.Job, quantum int) {
	if j.Kind == job.Shell {
		e.runShell(j)
		return
	}
	e.runProgram(j, quantum)
}

// runShell runs a SHELL job to completion in a single dispatch. SHELL jobs
// are non-preemptive and never contribute to the timeline.
func (e *Executor) runShell(j *job.Job) {
	e.sink.Started(j)

	out, in, err := os.Pipe()
	if err != nil {
		e.fail(j, "shell pipe", err)
		return
	}

	cmd := exec.Command("sh", "-c", j.Command)
	cmd.Stdout = in
	cmd.Stderr = in

	if err := cmd.Start(); err != nil {
		in.Close()
		out.Close()
		e.fail(j, "shell spawn", err)
		return
	}
	in.Close()

	buf := make([]byte, 4096)
	for {
		n, readErr := out.Read(buf)
		if n > 0 {
			if sendErr := j.Channel.Send(buf[:n]); sendErr != nil {
				e.sink.Error("shell send", sendErr)
				// Keep draining so the child can exit normally; just stop
				// forwarding for this Job (§5 cancellation semantics).
			}
		}
		if readErr != nil {
			break
		}
	}
	out.Close()

	_ = cmd.Wait()

	if err := j.Channel.Send(nil); err != nil {
		e.sink.Error("shell terminator", err)
	}
	j.SetStatus(job.Finished)
	e.sink.Ended(j)
}

// runProgram runs a PROGRAM job for one quantum: starting or resuming the
// child, reading up to quantum output lines, and stopping or reaping it.
func (e *Executor) runProgram(j *job.Job, quantum int) {
	if !j.Started {
		if !e.start(j) {
			return
		}
	} else {
		e.resume(j)
	}

	unitsConsumed := 0
	for unitsConsumed < quantum && j.RemainingTime.Load() > 0 {
		if j.PreemptFlag.Load() {
			break
		}

		if !j.Scanner.Scan() {
			// EOF before the declared burst finished: treat as natural
			// completion (§7 item 3).
			j.RemainingTime.Store(0)
			break
		}

		line := j.Scanner.Text() + "\n"
		if err := j.Channel.Send([]byte(line)); err != nil {
			e.sink.Error("program send", err)
			// Abandon forwarding but keep consuming the child's output so
			// bookkeeping (RemainingTime, quantum accounting) still
			// completes naturally (§5 cancellation semantics).
		}

		j.RemainingTime.Add(-1)
		unitsConsumed++
	}

	e.sink.QuantumForwarded(j, unitsConsumed)

	if j.RemainingTime.Load() > 0 {
		if err := unix.Kill(j.Cmd.Process.Pid, unix.SIGSTOP); err != nil {
			e.sink.Error("program stop", err)
		}
		j.PreemptFlag.Store(false)
		e.sink.Waiting(j)
		e.timeline.Append(j.ID, unitsConsumed)
		return
	}

	_ = j.Stdout.Close()
	_, _ = j.Cmd.Process.Wait()
	if err := j.Channel.Send(nil); err != nil {
		e.sink.Error("program terminator", err)
	}
	j.SetStatus(job.Finished)
	e.sink.Ended(j)
	if unitsConsumed > 0 {
		e.timeline.Append(j.ID, unitsConsumed)
	}
}

// start spawns a PROGRAM job's child process for the first time. The
// declared total_time is set by the caller on Job construction; start does
// not inspect it and only runs Command, split on whitespace, as given.
func (e *Executor) start(j *job.Job) bool {
	args := strings.Fields(j.Command)
	if len(args) == 0 {
		e.fail(j, "empty program command", ierrors.Wrap(errEmptyCommand))
		return false
	}

	cmd := exec.Command(args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		e.fail(j, "program stdout pipe", err)
		return false
	}

	if err := cmd.Start(); err != nil {
		e.fail(j, "program spawn", err)
		return false
	}

	j.Cmd = cmd
	j.Stdout = stdout
	j.Scanner = bufio.NewScanner(stdout)
	j.Scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	j.Started = true

	e.sink.Created(j)
	e.sink.Started(j)
	return true
}

// resume sends CONTINUE to a previously stopped PROGRAM job's child.
func (e *Executor) resume(j *job.Job) {
	if err := unix.Kill(j.Cmd.Process.Pid, unix.SIGCONT); err != nil {
		e.sink.Error("program resume", err)
	}
	e.sink.Running(j)
}

// fail transitions j directly to Finished after a spawn failure, sending a
// synthetic terminator frame (§7 item 2).
func (e *Executor) fail(j *job.Job, context string, err error) {
	e.sink.Error(context, err)
	if sendErr := j.Channel.Send(nil); sendErr != nil {
		e.sink.Error(context+" terminator", sendErr)
	}
	j.SetStatus(job.Finished)
}

