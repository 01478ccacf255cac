package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestRegisterJob_Validation(t *testing.T) {
	s := NewService(arbor.NewLogger())
	noop := func() error { return nil }

	assert.Error(t, s.RegisterJob("every-minute", "* * * * *", "", noop))
	assert.Error(t, s.RegisterJob("garbage", "not cron", "", noop))
	assert.Error(t, s.RegisterJob("nil-handler", "0 * * * *", "", nil))

	require.NoError(t, s.RegisterJob("refresh", "0 */6 * * *", "Refresh snapshot", noop))
	assert.Error(t, s.RegisterJob("refresh", "0 */6 * * *", "", noop))

	status, err := s.GetJobStatus("refresh")
	require.NoError(t, err)
	assert.Equal(t, "0 */6 * * *", status.Schedule)
	assert.Equal(t, "Refresh snapshot", status.Description)
	assert.Nil(t, status.LastRun)
	assert.Nil(t, status.NextRun)

	_, err = s.GetJobStatus("missing")
	assert.Error(t, err)
	assert.Error(t, s.TriggerJob("missing"))
}

func TestStartStop(t *testing.T) {
	s := NewService(arbor.NewLogger())
	require.NoError(t, s.RegisterJob("refresh", "0 */6 * * *", "", func() error { return nil }))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	status, err := s.GetJobStatus("refresh")
	require.NoError(t, err)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now()))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// stopping twice is harmless
	require.NoError(t, s.Stop())
}

func TestTriggerJob_NoOverlap(t *testing.T) {
	s := NewService(arbor.NewLogger())

	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	require.NoError(t, s.RegisterJob("refresh", "0 */6 * * *", "", func() error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}))

	require.NoError(t, s.TriggerJob("refresh"))
	<-started

	status, err := s.GetJobStatus("refresh")
	require.NoError(t, err)
	assert.True(t, status.IsRunning)

	// overlapping trigger is dropped
	require.NoError(t, s.TriggerJob("refresh"))
	require.Eventually(t, func() bool {
		status, _ := s.GetJobStatus("refresh")
		return status.SkipCount == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	require.NoError(t, s.Stop())

	status, err = s.GetJobStatus("refresh")
	require.NoError(t, err)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, 1, status.RunCount)
	assert.False(t, status.IsRunning)
	assert.NotNil(t, status.LastRun)
	assert.Empty(t, status.LastError)
}

func TestTriggerJob_RecordsErrorsAndPanics(t *testing.T) {
	s := NewService(arbor.NewLogger())

	require.NoError(t, s.RegisterJob("fails", "0 * * * *", "", func() error { return errors.New("upstream down") }))
	require.NoError(t, s.RegisterJob("panics", "0 * * * *", "", func() error { panic("bad state") }))

	require.NoError(t, s.TriggerJob("fails"))
	require.NoError(t, s.TriggerJob("panics"))
	require.NoError(t, s.Stop())

	statuses := s.GetAllJobStatuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "upstream down", statuses["fails"].LastError)
	assert.Contains(t, statuses["panics"].LastError, "bad state")
	assert.Equal(t, 1, statuses["panics"].RunCount)
}
