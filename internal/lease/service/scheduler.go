package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/leasekeeper/pkg/clockx"
)

// TimeOfDay is a wall-clock time, interpreted in the scheduler's zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "HH:MM" in 24 hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time of day %q, want HH:MM", ErrInvalidArgument, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns the first instant strictly after now at which the wall
// clock in now's zone reads t.
func (t TimeOfDay) Next(now time.Time) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, t.Hour, t.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, t.Hour, t.Minute, 0, 0, now.Location())
	}
	return next
}

// Job is one unit of daily work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs its jobs once a day at At, in order.
type Scheduler struct {
	At     TimeOfDay
	Clock  clockx.Clock
	Logger *slog.Logger
	Jobs   []Job

	// after is swapped in tests.
	after func(d time.Duration) <-chan time.Time
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	clock := clockx.Or(s.Clock)
	after := s.after
	if after == nil {
		after = time.After
	}

	for {
		now := clock()
		next := s.At.Next(now)
		s.Logger.Info("next scheduled run", slog.Time("at", next))

		select {
		case <-ctx.Done():
			return nil
		case <-after(next.Sub(now)):
		}

		s.RunOnce(ctx)
	}
}

// RunOnce runs every job, logging failures without stopping.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.Jobs {
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.Logger.Error("scheduled job failed", slog.String("job", job.Name), slog.Any("error", err))
			continue
		}
		s.Logger.Info("scheduled job finished", slog.String("job", job.Name), slog.Duration("took", time.Since(start)))
	}
}
