package job_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samkreter/rshd/internal/rshd/job"
)

type noopChannel struct{}

func (noopChannel) Send([]byte) error { return nil }

func TestNew(t *testing.T) {
	tests := map[string]struct {
		kind          job.Kind
		total         int
		wantTotal     int
		wantRemaining int32
	}{
		"program carries declared burst": {
			kind:          job.Program,
			total:         5,
			wantTotal:     5,
			wantRemaining: 5,
		},
		"shell has no declared burst": {
			kind:          job.Shell,
			total:         0,
			wantTotal:     -1,
			wantRemaining: -1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			j := job.New(1, noopChannel{}, "cmd", test.kind, test.total)

			assert.Equal(t, test.wantTotal, j.TotalTime)
			assert.Equal(t, test.wantRemaining, j.RemainingTime.Load())
			assert.Equal(t, job.Waiting, j.Status())
		})
	}
}

func TestGrantWaitTurn_UnblocksWaiter(t *testing.T) {
	j := job.New(1, noopChannel{}, "ls", job.Shell, -1)

	j.Grant()

	done := make(chan struct{})
	go func() {
		j.WaitTurn()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitTurn never unblocked after Grant")
	}
}

func TestSetStatus_IsObservedByStatus(t *testing.T) {
	j := job.New(1, noopChannel{}, "ls", job.Shell, -1)

	j.SetStatus(job.Running)
	assert.Equal(t, job.Running, j.Status())

	j.SetStatus(job.Finished)
	assert.Equal(t, job.Finished, j.Status())
}
