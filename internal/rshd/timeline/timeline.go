// Package timeline accumulates the Gantt segments produced by PROGRAM job
// dispatches and renders them to the asymmetric string format spec.md §4.7
// pins down. SHELL jobs never contribute a segment.
package timeline

import (
	"strconv"
	"strings"
	"sync"
)

// segment is one (job ID, cumulative end time) pair.
type segment struct {
	jobID      int
	cumulative int
}

// New creates an empty Timeline.
func New() *Timeline {
	return &Timeline{}
}

// Timeline is an append-only sequence of PROGRAM dispatch segments, flushed
// to a Gantt string and cleared whenever the ready queue drains.
type Timeline struct {
	mu       sync.Mutex
	segments []segment
	clock    int
}

// Append records one dispatch of duration units for jobID. Non-positive
// durations are ignored (§5's invariant: timeline durations are strictly
// positive; §7's resource-allocation-failure handling silently drops a
// would-be entry rather than aborting the server — the same "drop, don't
// fail" posture applies here to malformed zero/negative durations).
func (t *Timeline) Append(jobID, duration int) {
	if duration <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clock += duration
	t.segments = append(t.segments, segment{jobID: jobID, cumulative: t.clock})
}

// Flush renders the accumulated segments to a Gantt string and clears the
// Timeline. It returns "" if no segments have been recorded.
//
// The format is the one spec.md §4.7 names:
//
//	T0)-P<id1>-(T1)-P<id2>-(T2)...)-P<idN>-(TN
//
// where T0 is always 0 and every "-(Ti)" closes except the final one, which
// is left open. This asymmetry is load-bearing: it is the literal shape
// spec.md's worked scenarios (S1, S2) expect on the wire of the diagnostic
// stream, not a typo to be cleaned up.
func (t *Timeline) Flush() string {
	t.mu.Lock()
	segs := t.segments
	t.segments = nil
	t.clock = 0
	t.mu.Unlock()

	if len(segs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("0)")
	for i, seg := range segs {
		b.WriteString("-P")
		b.WriteString(strconv.Itoa(seg.jobID))
		b.WriteString("-(")
		b.WriteString(strconv.Itoa(seg.cumulative))
		if i != len(segs)-1 {
			b.WriteString(")")
		}
	}
	return b.String()
}
