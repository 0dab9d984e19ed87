package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

type countingJob struct {
	runs atomic.Int64
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return nil
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(logger.New(logger.Config{Level: "error"}))
	require.Error(t, s.AddJob("not a schedule", &countingJob{}))
}

func TestRunNowExecutesImmediately(t *testing.T) {
	s := New(logger.New(logger.Config{Level: "error"}))
	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(logger.New(logger.Config{Level: "error"}))
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 10ms", job))

	s.Start()
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for job.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
