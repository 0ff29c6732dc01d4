package auth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderauth/cinder/pkg/authsdk"
)

func TestRefreshEndpointIsRateLimited(t *testing.T) {
	env := setupAuthServer(t)
	client := authsdk.NewClient(env.Server.URL)

	// Burn through the strict budget. Rejections for a bad grant still
	// count against the bucket.
	var apiErr *authsdk.APIError
	for i := 0; i < 10; i++ {
		_, err := client.Refresh(t.Context(), "not-a-jwt")
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, 401, apiErr.StatusCode, "request %d should fail authentication, not rate limiting", i)
	}

	_, err := client.Refresh(t.Context(), "not-a-jwt")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Equal(t, authsdk.ErrorCodeRateLimited, apiErr.Code)
}


