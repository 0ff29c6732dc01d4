package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes the service returns, following the OAuth2 vocabulary.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeInvalidToken            = "invalid_token"
	ErrorCodeInsufficientPermissions = "insufficient_permissions"
	ErrorCodeRateLimited             = "rate_limit_exceeded"
	ErrorCodeServerError             = "server_error"
)

// APIError is a typed error the SDK returns for non-2xx responses.
type APIError struct {
	// StatusCode is the HTTP status the service answered with.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "invalid_grant").
	Code string `json:"error"`

	// Description is the human-readable description.
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// parseErrorResponse turns a non-2xx response body into an APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
