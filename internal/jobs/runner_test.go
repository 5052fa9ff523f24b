package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_SubmitReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	r := NewRunner(func(_ context.Context, _ *Job) error {
		<-release
		return nil
	})

	job, err := r.Submit("/records/lecture.mp4")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "lecture", job.BaseName)
	assert.Equal(t, StatusPending, job.Status)
	assert.NotEmpty(t, job.ID)

	close(release)
	r.Wait()

	got, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, got.Status)
}

func TestRunner_RejectsSecondSubmissionWhileActive(t *testing.T) {
	release := make(chan struct{})
	r := NewRunner(func(_ context.Context, _ *Job) error {
		<-release
		return nil
	})

	first, err := r.Submit("a.mp4")
	require.NoError(t, err)

	_, err = r.Submit("b.mp4")
	require.ErrorIs(t, err, ErrJobActive)

	close(release)
	r.Wait()

	// once the first job finished, a new one is accepted
	second, err := r.Submit("b.mp4")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	r.Wait()
}

func TestRunner_FailedExecutorMarksJobFailed(t *testing.T) {
	r := NewRunner(func(_ context.Context, _ *Job) error {
		return assert.AnError
	})

	_, err := r.Submit("a.mp4")
	require.NoError(t, err)
	r.Wait()

	got, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)
}

func TestRunner_CancelSignalsExecutorContext(t *testing.T) {
	started := make(chan struct{})
	r := NewRunner(func(ctx context.Context, _ *Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	_, err := r.Submit("a.mp4")
	require.NoError(t, err)

	<-started
	require.NoError(t, r.Cancel())
	r.Wait()

	got, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.Status)
}

func TestRunner_CancelWithoutActiveJob(t *testing.T) {
	r := NewRunner(func(_ context.Context, _ *Job) error { return nil })
	require.ErrorIs(t, r.Cancel(), ErrNoActiveJob)

	_, err := r.Submit("a.mp4")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		job, ok := r.Current()
		return ok && job.Status.Terminal()
	}, time.Second, 10*time.Millisecond)

	require.ErrorIs(t, r.Cancel(), ErrNoActiveJob)
}
