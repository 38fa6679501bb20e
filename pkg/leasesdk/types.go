package leasesdk

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// IssueTokenRequest asks for a new single-use invitation.
type IssueTokenRequest struct {
	// PlanDays is the lease length granted on redemption. Must be positive.
	PlanDays int `json:"plan_days" example:"30"`
}

// TokenResponse describes an unredeemed invitation.
type TokenResponse struct {
	Handle     string    `json:"handle" example:"https://t.me/+AbCdEf"`
	PlanDays   int       `json:"plan_days" example:"30"`
	ValidUntil time.Time `json:"valid_until"`
	CreatedBy  string    `json:"created_by" example:"operator"`
	CreatedAt  time.Time `json:"created_at"`
}

type TokenListResponse struct {
	Tokens []TokenResponse `json:"tokens"`
}

// SubscriptionResponse is one principal's lease.
type SubscriptionResponse struct {
	PrincipalID int64     `json:"principal_id" example:"123456789"`
	DisplayName string    `json:"display_name" example:"ana"`
	GrantedAt   time.Time `json:"granted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	// Status is "active" or "lapsed".
	Status string `json:"status" example:"active"`
}

type SubscriptionListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

// RenewRequest extends a lease by Days from max(expires_at, now).
type RenewRequest struct {
	Days int `json:"days" example:"30"`
}

// PurgeRequest deletes lapsed subscriptions. Code is a TOTP code, required
// when the server has a purge secret configured.
type PurgeRequest struct {
	Code string `json:"code,omitempty" example:"123456"`
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// SweepResponse summarises an eviction pass.
type SweepResponse struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Evicted    []int64   `json:"evicted"`
	Failed     []int64   `json:"failed"`
}

type ReminderResponse struct {
	Sent int `json:"sent"`
}

// DiagnosticsResponse is the bot's standing in the managed group.
type DiagnosticsResponse struct {
	Status             string `json:"status" example:"administrator"`
	CanInviteUsers     bool   `json:"can_invite_users"`
	CanRestrictMembers bool   `json:"can_restrict_members"`
	Sufficient         bool   `json:"sufficient"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the per-dependency status reported by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
}
