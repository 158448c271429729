package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("submits on interval", func(t *testing.T) {
		sub := &recordingSubmitter{}
		s, err := NewScheduler(sub)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleEvery("rebuild", 20*time.Millisecond)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		s.Start(context.Background())
		require.Eventually(t, func() bool { return len(sub.paths()) >= 2 }, 5*time.Second, 10*time.Millisecond)

		sub.mu.Lock()
		require.Equal(t, TriggerSchedule, sub.reqs[0].Trigger)
		sub.mu.Unlock()
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler(&recordingSubmitter{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleEvery("rebuild", 0)
		require.Error(t, err)
	})
}

func TestScheduler_ScheduleCron(t *testing.T) {
	s, err := NewScheduler(&recordingSubmitter{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	id, err := s.ScheduleCron("nightly", "0 3 * * *")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.ScheduleCron("bad", "this is not a cron")
	require.Error(t, err)
}
