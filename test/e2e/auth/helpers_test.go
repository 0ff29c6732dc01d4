package auth_test

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/cinderauth/cinder/internal/auth/domain"
	httpapi "github.com/cinderauth/cinder/internal/auth/http"
	"github.com/cinderauth/cinder/internal/auth/service"
	"github.com/cinderauth/cinder/internal/auth/store/drivers/memory"
	"github.com/cinderauth/cinder/pkg/jwtx"
)

/*
 * Common helpers for auth service end-to-end tests. Each test gets a
 * fresh in-process server over an in-memory blacklist, driven through
 * the authsdk client exactly the way an external consumer would.
 */

const (
	testIssuer = "cinder-auth-test"

	testAccessSecret  = "test-access-secret-0123456789"
	testRefreshSecret = "test-refresh-secret-0123456789"
)

type testEnv struct {
	Server *httptest.Server
	Tokens *service.TokenService
	Keys   *service.KeyRotationService
}

// setupAuthServer builds a fully wired HTTP server with fixed signing
// secrets and an in-memory revocation store.
func setupAuthServer(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	keychain, err := jwtx.NewKeychain(jwtx.KeychainConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
	})
	require.NoError(t, err)

	tokens := &service.TokenService{
		Keychain:   keychain,
		Blacklist:  memory.NewBlacklist(),
		Issuer:     testIssuer,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}

	keys := &service.KeyRotationService{
		Keychain: keychain,
		Logger:   logger,
	}

	router := httpapi.NewRouter("test", logger)
	router.TokenService = tokens
	router.KeyRotationService = keys
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{Server: srv, Tokens: tokens, Keys: keys}
}

// issuePair issues a token pair for a test user with the given
// permissions, going through the service directly the way a login
// handler would.
func issuePair(t *testing.T, env *testEnv, subject string, permissions []string) domain.TokenPair {
	t.Helper()

	pair, err := env.Tokens.IssuePairWithPermissions(jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Username:         subject,
		Roles:            []string{"user"},
	}, permissions)
	require.NoError(t, err)

	return pair
}
