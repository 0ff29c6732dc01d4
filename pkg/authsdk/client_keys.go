package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RotateKey swaps the signing secret for a token category. The access
// token must carry the keys:rotate permission.
func (c *Client) RotateKey(ctx context.Context, accessToken string, req RotateKeyRequest) (*RotateKeyResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/keys/rotate",
		bytes.NewReader(body), map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + accessToken,
		})
	if err != nil {
		return nil, err
	}

	var result RotateKeyResponse
	if err := decodeJSON(resp, &result, http.StatusOK); err != nil {
		return nil, err
	}

	return &result, nil
}
