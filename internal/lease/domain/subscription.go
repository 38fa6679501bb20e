package domain

import "time"

// Day is the fixed length of a plan day. Leases are counted in 86400 second
// units, not calendar days, so DST transitions never shift them.
const Day = 24 * time.Hour

// Subscription is a principal's current access lease.
type Subscription struct {
	PrincipalID int64
	DisplayName string
	GrantedAt   time.Time
	ExpiresAt   time.Time

	// RemindedFor is the ExpiresAt the last expiry reminder covered. Zero
	// when no reminder went out this cycle.
	RemindedFor time.Time
	UpdatedAt   time.Time
}

type SubscriptionStatus string

const (
	StatusActive SubscriptionStatus = "active"
	StatusLapsed SubscriptionStatus = "lapsed"
)

// Lapsed reports whether the lease ended strictly before now.
func (s Subscription) Lapsed(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

func (s Subscription) Status(now time.Time) SubscriptionStatus {
	if s.Lapsed(now) {
		return StatusLapsed
	}
	return StatusActive
}

// Label is what administrators see for the principal.
func (s Subscription) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return "(no name)"
}

// PlanDuration converts a day count into a lease length.
func PlanDuration(days int) time.Duration {
	return time.Duration(days) * Day
}

// Extend computes the monotonic renewal max(current, now) + days.
func Extend(current, now time.Time, days int) time.Time {
	base := current
	if now.After(base) {
		base = now
	}
	return base.Add(PlanDuration(days))
}
