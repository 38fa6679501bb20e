package domain

import "time"

// SweepResult summarises one eviction pass.
type SweepResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Evicted   []int64
	Failed    []int64
}

// Attempted is the number of evictions the run tried.
func (r SweepResult) Attempted() int {
	return len(r.Evicted) + len(r.Failed)
}

// Permissions is the bot's standing in the managed group.
type Permissions struct {
	Status             string
	CanInviteUsers     bool
	CanRestrictMembers bool
}

// Sufficient reports whether the bot can perform every gateway operation.
func (p Permissions) Sufficient() bool {
	if p.Status == "creator" {
		return true
	}
	return p.Status == "administrator" && p.CanInviteUsers && p.CanRestrictMembers
}
