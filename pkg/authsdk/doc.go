// Package authsdk is a Go client for the auth service's HTTP API.
//
// The client covers the token surface (refresh, revoke, introspect), the
// authenticated key rotation endpoint, and the health probes. Errors from
// the service come back as *APIError with the service's error code and
// the HTTP status attached:
//
//	client := authsdk.NewClient("http://localhost:8080")
//	pair, err := client.Refresh(ctx, refreshToken)
//	var apiErr *authsdk.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeInvalidGrant {
//		// refresh token expired or revoked, re-authenticate
//	}
package authsdk
