// Package diag is the observability sink described in spec.md §6: it is not
// on the wire, only written to the server's local diagnostic stream. Every
// event it emits mirrors one of the original implementation's log lines
// (see original_source/Phase_4/server.c), adapted to the teacher's
// structured Logger idiom instead of raw fprintf.
package diag

import (
	"io"

	"github.com/samkreter/rshd/internal/log"
	"github.com/samkreter/rshd/internal/rshd/job"
)

// Sink emits lifecycle and scheduling events to a diagnostic stream.
type Sink struct {
	logger *log.Logger
}

// New creates a Sink writing to w.
func New(w io.Writer) *Sink {
	return &Sink{logger: log.New(w, "rshd")}
}

// ClientConnected logs a new client connection.
func (s *Sink) ClientConnected(clientID int) {
	s.logger.Infof("[%d] <<< client connected", clientID)
}

// ClientDisconnected logs a clean client disconnect.
func (s *Sink) ClientDisconnected(clientID int) {
	s.logger.Infof("[%d] client disconnected", clientID)
}

// CommandReceived logs the raw command line a client submitted.
func (s *Sink) CommandReceived(clientID int, command string) {
	s.logger.Infof("[%d] >>> %s", clientID, command)
}

// jobRemaining returns the value events report for a Job's remaining time:
// -1 for Shell jobs, matching spec.md §6's "SHELL uses -1" convention.
func jobRemaining(j *job.Job) int {
	if j.Kind == job.Shell {
		return -1
	}
	return int(j.RemainingTime.Load())
}

// Created logs a Job's creation, emitted once per Job: for a Shell job by the
// client handler just before it is enqueued, for a Program job by the
// Executor when its child is first spawned.
func (s *Sink) Created(j *job.Job) {
	s.logger.Infof("(%d) --- created (%d) [trace %s]", j.ID, jobRemaining(j), j.TraceID)
}

// Started logs a Job's first dispatch.
func (s *Sink) Started(j *job.Job) {
	s.logger.Infof("(%d) --- started (%d)", j.ID, jobRemaining(j))
}

// Running logs a Job resuming after having previously yielded.
func (s *Sink) Running(j *job.Job) {
	s.logger.Infof("(%d) --- running (%d)", j.ID, jobRemaining(j))
}

// Waiting logs a Job yielding the CPU with work still remaining.
func (s *Sink) Waiting(j *job.Job) {
	s.logger.Infof("(%d) --- waiting (%d)", j.ID, jobRemaining(j))
}

// Ended logs a Job's completion.
func (s *Sink) Ended(j *job.Job) {
	s.logger.Infof("(%d) --- ended (%d)", j.ID, 0)
}

// QuantumForwarded logs the units forwarded during one quantum. The
// reported byte count is the approximation the original implementation
// used (units * 10); spec.md §9 explicitly preserves it as a lifecycle
// statistic, not a transport invariant.
func (s *Sink) QuantumForwarded(j *job.Job, unitsConsumed int) {
	if unitsConsumed <= 0 {
		return
	}
	s.logger.Infof("[%d] <<< %d bytes sent (approx)", j.ID, unitsConsumed*10)
}

// GanttFlushed logs the rendered Gantt timeline when the ready queue drains.
func (s *Sink) GanttFlushed(gantt string) {
	s.logger.Infof("%s", gantt)
}

// Error logs an unexpected failure that did not abort the server.
func (s *Sink) Error(context string, err error) {
	s.logger.Errorf("%s: %v", context, err)
}
