package authsdk

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var formHeaders = map[string]string{
	"Content-Type": "application/x-www-form-urlencoded",
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"refresh_token": {refreshToken},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/token/refresh",
		strings.NewReader(data.Encode()), formHeaders)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

// Revoke revokes a refresh or temporary token. The service answers 200
// even for tokens it has never seen, so a nil return only means the
// token is not usable anymore.
func (c *Client) Revoke(ctx context.Context, token string) error {
	data := url.Values{
		"token": {token},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/token/revoke",
		strings.NewReader(data.Encode()), formHeaders)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, bodyBytes)
	}

	return nil
}

// Introspect reports whether an access token is live and returns its
// claims when it is.
func (c *Client) Introspect(ctx context.Context, token string) (*IntrospectionResult, error) {
	data := url.Values{
		"token": {token},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/token/introspect",
		strings.NewReader(data.Encode()), formHeaders)
	if err != nil {
		return nil, err
	}

	var result IntrospectionResult
	if err := decodeJSON(resp, &result, http.StatusOK); err != nil {
		return nil, err
	}

	return &result, nil
}
