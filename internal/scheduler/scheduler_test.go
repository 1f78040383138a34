package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"build-hooks/pkg/circleci"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (r *countingRefresher) Refresh(ctx context.Context) (*circleci.Workflow, bool, error) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, false, r.err
	}
	return &circleci.Workflow{ID: "wf-1", Status: "running"}, true, nil
}

func TestRunOnce(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, "")

	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())

	r.err = errors.New("boom")
	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestRunOnceSkipsOverlap(t *testing.T) {
	r := &countingRefresher{block: make(chan struct{})}
	s := NewScheduler(r, "")

	done := make(chan struct{})
	go func() {
		s.RunOnce(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())

	close(r.block)
	<-done
}

func TestStart(t *testing.T) {
	t.Run("disabled without an expression", func(t *testing.T) {
		s := NewScheduler(&countingRefresher{}, "")
		assert.False(t, s.Enabled())
		require.NoError(t, s.Start())
		s.Stop()
	})

	t.Run("invalid expression", func(t *testing.T) {
		s := NewScheduler(&countingRefresher{}, "every tuesday")
		assert.Error(t, s.Start())
	})

	t.Run("runs on schedule", func(t *testing.T) {
		r := &countingRefresher{}
		s := NewScheduler(r, "@every 1s")
		require.NoError(t, s.Start())
		defer s.Stop()

		assert.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	})
}
