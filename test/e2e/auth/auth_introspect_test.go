package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderauth/cinder/pkg/authsdk"
)

func TestIntrospectActiveToken(t *testing.T) {
	env := setupAuthServer(t)
	client := authsdk.NewClient(env.Server.URL)

	pair := issuePair(t, env, "alice", []string{"profile:read", "profile:write"})

	result, err := client.Introspect(t.Context(), pair.AccessToken)
	require.NoError(t, err)

	assert.True(t, result.Active)
	assert.Equal(t, "access", result.TokenType)
	assert.Equal(t, "alice", result.Sub)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, []string{"profile:read", "profile:write"}, result.Permissions)
	assert.Equal(t, testIssuer, result.Iss)
	assert.Positive(t, result.Exp)
}

func TestIntrospectInactiveTokens(t *testing.T) {
	env := setupAuthServer(t)
	client := authsdk.NewClient(env.Server.URL)

	pair := issuePair(t, env, "alice", nil)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "refresh token on access endpoint", token: pair.RefreshToken},
		{name: "empty signature", token: pair.AccessToken + "tampered"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := client.Introspect(t.Context(), tc.token)
			require.NoError(t, err)

			// Inactive tokens leak nothing beyond the flag itself.
			assert.False(t, result.Active)
			assert.Empty(t, result.Sub)
			assert.Empty(t, result.TokenType)
		})
	}
}


