package leasesdk

import (
	"context"
	"net/http"
	"net/url"
)

// IssueToken creates a single-use invitation.
func (c *Client) IssueToken(ctx context.Context, req IssueTokenRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/tokens", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTokens returns the invitations that can still be redeemed.
func (c *Client) ListTokens(ctx context.Context) ([]TokenResponse, error) {
	var out TokenListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tokens", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

func (c *Client) ListSubscriptions(ctx context.Context) ([]SubscriptionResponse, error) {
	var out SubscriptionListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

// Renew extends the subscription identified by ref, a principal id or a
// display name.
func (c *Client) Renew(ctx context.Context, ref string, days int) (*SubscriptionResponse, error) {
	var out SubscriptionResponse
	path := "/v1/subscriptions/" + url.PathEscape(ref) + "/renew"
	if err := c.do(ctx, http.MethodPost, path, RenewRequest{Days: days}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Purge(ctx context.Context, code string) (*PurgeResponse, error) {
	var out PurgeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions/purge", PurgeRequest{Code: code}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sweep runs an eviction pass and waits for it to finish.
func (c *Client) Sweep(ctx context.Context) (*SweepResponse, error) {
	var out SweepResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sweeps", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Remind(ctx context.Context) (*ReminderResponse, error) {
	var out ReminderResponse
	if err := c.do(ctx, http.MethodPost, "/v1/reminders", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Diagnostics(ctx context.Context) (*DiagnosticsResponse, error) {
	var out DiagnosticsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/diagnostics", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
