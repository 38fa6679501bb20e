package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	at, err := ParseTimeOfDay("03:30")
	require.NoError(t, err)
	require.Equal(t, TimeOfDay{Hour: 3, Minute: 30}, at)
	require.Equal(t, "03:30", at.String())

	for _, bad := range []string{"", "3pm", "24:00", "12:60"} {
		_, err := ParseTimeOfDay(bad)
		require.ErrorIs(t, err, ErrInvalidArgument, bad)
	}
}

func TestTimeOfDayNext(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	at := TimeOfDay{Hour: 3, Minute: 0}

	t.Run("later today", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 1, 15, 0, 0, loc)
		require.Equal(t, time.Date(2025, 6, 10, 3, 0, 0, 0, loc), at.Next(now))
	})

	t.Run("already passed rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 3, 0, 0, 0, loc)
		require.Equal(t, time.Date(2025, 6, 11, 3, 0, 0, 0, loc), at.Next(now))
	})

	t.Run("month boundary", func(t *testing.T) {
		now := time.Date(2025, 6, 30, 23, 0, 0, 0, loc)
		require.Equal(t, time.Date(2025, 7, 1, 3, 0, 0, 0, loc), at.Next(now))
	})

	t.Run("wall clock is kept across DST", func(t *testing.T) {
		// Chile moves clocks forward in early September.
		for day := 1; day <= 14; day++ {
			next := at.Next(time.Date(2025, 9, day, 12, 0, 0, 0, loc))
			require.Equal(t, 3, next.Hour())
			require.Equal(t, day+1, next.Day())
		}
	})
}

func TestSchedulerRunsJobsInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string, err error) Job {
		return Job{Name: name, Run: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return err
		}}
	}

	fire := make(chan time.Time)
	var waits []time.Duration
	ctx, cancel := context.WithCancel(t.Context())

	s := &Scheduler{
		At:     TimeOfDay{Hour: 3},
		Clock:  func() time.Time { return time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC) },
		Logger: slogx.Discard(),
		Jobs:   []Job{record("sweep", errors.New("partial")), record("remind", nil)},
		after: func(d time.Duration) <-chan time.Time {
			waits = append(waits, d)
			return fire
		},
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	fire <- time.Now()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	require.Equal(t, []string{"sweep", "remind"}, order)
	require.Equal(t, time.Hour, waits[0])
}
