// Package leasesdk is a Go client for the leasekeeper admin HTTP API.
//
// Every /v1 call needs a bearer token signed with the service's Ed25519
// admin key (see the leasekeeper-admin mint command):
//
//	c := leasesdk.NewClient("http://localhost:8080", token)
//	tok, err := c.IssueToken(ctx, leasesdk.IssueTokenRequest{PlanDays: 30})
//	if err != nil {
//		var apiErr *leasesdk.APIError
//		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadGateway {
//			// Telegram refused; try again later.
//		}
//	}
//	fmt.Println(tok.Handle)
//
// The request and response types double as the wire contract for the
// server's handlers.
package leasesdk
