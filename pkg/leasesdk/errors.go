package leasesdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeForbidden      = "forbidden"
	ErrorCodeGateway        = "gateway_error"
	ErrorCodeServerError    = "server_error"
	ErrorCodeInvalidToken   = "invalid_token"
)

// APIError is a non-2xx response from the admin API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("leasesdk: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("leasesdk: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// parseErrorResponse builds an APIError from a failed response. Bearer
// challenges come back as plain text, so a body that is not JSON becomes
// the description.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		apiErr.Code = er.Error
		apiErr.Description = er.ErrorDescription
		return apiErr
	}

	apiErr.Code = http.StatusText(resp.StatusCode)
	apiErr.Description = strings.TrimSpace(string(body))
	return apiErr
}
