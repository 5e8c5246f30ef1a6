// Package session drives the per-client control flow described in spec.md
// §4.6: classify one command line, enqueue it as a Job, wait for and run
// dispatch turns until the Job finishes, then read the next line.
package session

import (
	"net"
	"strconv"
	"strings"

	"github.com/samkreter/rshd/internal/rshd/diag"
	"github.com/samkreter/rshd/internal/rshd/executor"
	"github.com/samkreter/rshd/internal/rshd/job"
	"github.com/samkreter/rshd/internal/rshd/scheduler"
	"github.com/samkreter/rshd/internal/rshd/wire"
	"github.com/samkreter/rshd/internal/validator"
)

// firstQuantum and subsequentQuantum are the round-robin quantum sizes named
// in spec.md §4.2: a Program job's first dispatch runs for 3 units, every
// dispatch after that for 7.
const (
	firstQuantum      = 3
	subsequentQuantum = 7
)

// Handle runs one client connection to completion. It returns when the
// client disconnects or sends "exit". clientID is assigned once per
// connection (§3: "stable integer assigned at connection time") and is
// reused as the ID for every Job this client submits during the session,
// rather than minted fresh per command.
func Handle(conn net.Conn, clientID int, sched *scheduler.Scheduler, exec *executor.Executor, sink *diag.Sink) {
	defer conn.Close()

	sink.ClientConnected(clientID)
	channel := wire.NewChannel(conn)

	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			sink.ClientDisconnected(clientID)
			return
		}

		command := strings.TrimSpace(string(payload))
		if command == "" {
			continue
		}
		sink.CommandReceived(clientID, command)

		if command == "exit" {
			_ = wire.WriteClose(conn)
			sink.ClientDisconnected(clientID)
			return
		}

		kind, total := classify(command)
		j := job.New(clientID, channel, command, kind, total)
		if kind == job.Shell {
			sink.Created(j)
		}

		sched.Enqueue(j)
		runToCompletion(j, sched, exec)

		if gantt, ok := sched.FlushIfEmpty(); ok {
			sink.GanttFlushed(gantt)
		}
	}
}

// runToCompletion repeatedly waits for a dispatch turn and runs one quantum
// until j reaches Finished, per spec.md §4.6 steps 2-3.
func runToCompletion(j *job.Job, sched *scheduler.Scheduler, exec *executor.Executor) {
	for {
		j.WaitTurn()
		j.SetStatus(job.Running)

		quantum := firstQuantum
		if j.RoundsRun > 0 {
			quantum = subsequentQuantum
		}

		exec.RunQuantum(j, quantum)
		j.RoundsRun++

		finished := j.Status() == job.Finished
		sched.Yield(j)

		if finished {
			sched.Remove(j)
			return
		}
	}
}

// classify determines a command's Job kind and, for PROGRAM jobs, declared
// burst. A command starting with "./demo" or "demo" is a PROGRAM job; an
// optional trailing integer argument sets its duration, defaulting to
// job.DefaultProgramDuration when absent or unparseable (spec.md §3).
// Everything else is a SHELL job.
func classify(command string) (job.Kind, int) {
	fields := strings.Fields(command)

	v := validator.New()
	v.AssertFunc(func() bool { return len(fields) > 0 }, "empty command")
	if v.Err() != nil {
		return job.Shell, -1
	}

	head := fields[0]
	if head != "./demo" && head != "demo" {
		return job.Shell, -1
	}

	duration := job.DefaultProgramDuration
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
			duration = n
		}
	}
	return job.Program, duration
}
