package systems

import (
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemRejectsBadSizes(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobsRunOnWorkers(t *testing.T) {
	js, err := NewJobSystem(4, 2)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 32; i++ {
		require.NoError(t, js.Submit(JobTask{Name: "count", Run: func() error {
			ran.Add(1)
			return nil
		}}))
	}
	require.NoError(t, js.Wait())
	assert.Equal(t, int32(32), ran.Load())
	require.NoError(t, js.Shutdown())
}

func TestWaitCombinesJobErrors(t *testing.T) {
	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	require.NoError(t, js.Submit(JobTask{Name: "a", Run: func() error { return errA }}))
	require.NoError(t, js.Submit(JobTask{Name: "b", Run: func() error { return errB }}))
	require.NoError(t, js.Submit(JobTask{Name: "c", Run: func() error { return nil }}))

	err = js.Wait()
	require.Error(t, err)
	// Either job may finish first; both are reported.
	assert.True(t, errors.Is(err, errA) || errors.Is(err, errB))
	assert.Contains(t, err.Error(), "failed")

	// Errors are cleared once reported.
	assert.NoError(t, js.Wait())
	require.NoError(t, js.Shutdown())
}

func TestSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	require.NoError(t, js.Shutdown())
	assert.ErrorIs(t, js.Submit(JobTask{Name: "late", Run: func() error { return nil }}), ErrJobSystemClosed)
	assert.ErrorIs(t, js.Shutdown(), ErrJobSystemClosed)
}
