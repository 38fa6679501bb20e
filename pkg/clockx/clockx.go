// Package clockx provides the injectable time source used for lease
// arithmetic and the daily schedule.
package clockx

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock func() time.Time

// System returns a clock reading wall time in loc. A nil loc means UTC.
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

// Zone loads a named IANA zone, e.g. "America/Santiago".
func Zone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clockx: load zone %q: %w", name, err)
	}
	return loc, nil
}

// Fixed always returns t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Manual is a settable clock for tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Clock adapts m to the Clock function type.
func (m *Manual) Clock() Clock { return m.Now }

// Or returns c, or the UTC system clock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System(time.UTC)
	}
	return c
}
