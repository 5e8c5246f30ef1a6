package executor_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkreter/rshd/internal/rshd/diag"
	"github.com/samkreter/rshd/internal/rshd/executor"
	"github.com/samkreter/rshd/internal/rshd/job"
	"github.com/samkreter/rshd/internal/rshd/timeline"
)

// recordingChannel captures every payload a Job sends, in order.
type recordingChannel struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *recordingChannel) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := make([]byte, len(payload))
	copy(frame, payload)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *recordingChannel) all() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, f := range c.frames {
		out = append(out, f...)
	}
	return out
}

func (c *recordingChannel) last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func TestRunQuantum_Shell(t *testing.T) {
	sink := diag.New(io.Discard)
	exec := executor.New(sink, timeline.New())
	channel := &recordingChannel{}
	j := job.New(1, channel, "echo hello", job.Shell, -1)

	exec.RunQuantum(j, 3)

	assert.Equal(t, job.Finished, j.Status())
	assert.Contains(t, string(channel.all()), "hello")
	assert.Empty(t, channel.last(), "final frame must be an empty terminator")
}

// programStep describes one RunQuantum call against a PROGRAM job and the
// state expected immediately afterward.
type programStep struct {
	quantum       int
	wantFinished  bool
	wantRemaining int32
}

func TestRunQuantum_Program(t *testing.T) {
	tests := map[string]struct {
		scriptLines int
		sleep       time.Duration
		total       int
		steps       []programStep
	}{
		"completes within first quantum": {
			scriptLines: 2,
			total:       2,
			steps: []programStep{
				{quantum: 3, wantFinished: true, wantRemaining: 0},
			},
		},
		"spans two quanta with stop and resume": {
			scriptLines: 5,
			sleep:       20 * time.Millisecond,
			total:       5,
			steps: []programStep{
				{quantum: 3, wantFinished: false, wantRemaining: 2},
				{quantum: 7, wantFinished: true, wantRemaining: 0},
			},
		},
		"declared burst exceeds actual output": {
			scriptLines: 2,
			total:       10,
			steps: []programStep{
				{quantum: 5, wantFinished: true, wantRemaining: 0},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			script := writeDemoScript(t, test.scriptLines, test.sleep)

			sink := diag.New(io.Discard)
			exec := executor.New(sink, timeline.New())
			channel := &recordingChannel{}
			j := job.New(1, channel, "/bin/sh "+script, job.Program, test.total)

			for _, step := range test.steps {
				exec.RunQuantum(j, step.quantum)

				if step.wantFinished {
					assert.Equal(t, job.Finished, j.Status())
				} else {
					assert.NotEqual(t, job.Finished, j.Status())
				}
				assert.Equal(t, step.wantRemaining, j.RemainingTime.Load())
			}

			assert.Empty(t, channel.last(), "final frame must be an empty terminator")
		})
	}
}

func TestRunQuantum_Program_RecordsTimeline(t *testing.T) {
	// S1-shaped: a single Program job dispatched as 3 units then 2 more.
	script := writeDemoScript(t, 5, 20*time.Millisecond)

	sink := diag.New(io.Discard)
	tl := timeline.New()
	exec := executor.New(sink, tl)
	channel := &recordingChannel{}
	j := job.New(1, channel, "/bin/sh "+script, job.Program, 5)

	exec.RunQuantum(j, 3)
	exec.RunQuantum(j, 7)

	require.Equal(t, job.Finished, j.Status())
	assert.Equal(t, "0)-P1-(3)-P1-(5", tl.Flush())
}

// writeDemoScript writes a shell script emitting n lines, one per echo,
// sleeping between each if sleep > 0, and returns its path. Its path never
// contains whitespace, so the executor's whitespace-delimited argv split
// sees "/bin/sh" and the script path as exactly two fields.
func writeDemoScript(t *testing.T, n int, sleep time.Duration) string {
	t.Helper()

	var body string
	for i := 0; i < n; i++ {
		body += fmt.Sprintf("echo Demo%d\n", i)
		if sleep > 0 {
			body += fmt.Sprintf("sleep %g\n", sleep.Seconds())
		}
	}

	path := filepath.Join(t.TempDir(), "demo.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}
