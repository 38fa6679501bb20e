package domain

import "time"

// Token is a single-use right to join the group with a pre-agreed plan
// length. Handle is the invitation link itself.
type Token struct {
	Handle     string
	PlanDays   int
	ValidUntil time.Time
	CreatedBy  string
	CreatedAt  time.Time
}

// Redeemable reports whether the token may still be consumed at now.
func (t Token) Redeemable(now time.Time) bool {
	return now.Before(t.ValidUntil)
}
