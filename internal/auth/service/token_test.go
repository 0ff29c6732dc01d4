package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderauth/cinder/internal/auth/service"
	"github.com/cinderauth/cinder/internal/auth/store/drivers/memory"
	"github.com/cinderauth/cinder/pkg/jwtx"
)

const testIssuer = "auth-service-test"

func newTokenService(t *testing.T) *service.TokenService {
	t.Helper()

	keychain, err := jwtx.NewKeychain(jwtx.KeychainConfig{
		AccessSecret:  "access-secret-0123456789",
		RefreshSecret: "refresh-secret-0123456789",
	})
	require.NoError(t, err)

	return &service.TokenService{
		Keychain:   keychain,
		Blacklist:  memory.NewBlacklist(),
		Issuer:     testIssuer,
		Audience:   []string{"api"},
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func userClaims(subject string) jwtx.Claims {
	return jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Username:         subject,
		Roles:            []string{"user"},
	}
}

func TestIssuePair(t *testing.T) {
	svc := newTokenService(t)

	pair, err := svc.IssuePair(userClaims("alice"))
	require.NoError(t, err)

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	// Refresh always outlives access for the same issuance.
	assert.False(t, pair.RefreshExpiresAt.Before(pair.AccessExpiresAt))
	assert.InDelta(t, (15 * time.Minute).Seconds(), float64(pair.ExpiresIn), 2)

	access, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", access.Subject)
	assert.Equal(t, testIssuer, access.Issuer)
	assert.Equal(t, jwtx.TokenTypeAccess, access.Type)
	assert.Empty(t, access.ID, "access tokens carry no jti")

	refresh, err := svc.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, jwtx.TokenTypeRefresh, refresh.Type)
	assert.NotEmpty(t, refresh.ID, "refresh tokens carry a jti")
}

func TestIssuePairWithPermissions(t *testing.T) {
	svc := newTokenService(t)

	pair, err := svc.IssuePairWithPermissions(userClaims("alice"),
		[]string{"orders:read", "keys:rotate"})
	require.NoError(t, err)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, []string{"orders:read", "keys:rotate"}, claims.Permissions)
	assert.True(t, claims.Perm["keys:rotate"], "presence map travels with the token")
	assert.True(t, claims.HasAllPermissions([]string{"orders:read", "keys:rotate"}))
}

func TestIssueStampsReservedFields(t *testing.T) {
	svc := newTokenService(t)

	// A caller trying to smuggle in their own expiry, jti and type gets
	// all of it re-stamped.
	claims := userClaims("alice")
	claims.ID = "smuggled"
	claims.Type = jwtx.TokenTypeRefresh
	claims.Issuer = "evil"
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(100 * 24 * time.Hour))

	token, err := svc.IssueAccess(claims)
	require.NoError(t, err)

	verified, err := svc.VerifyAccess(token)
	require.NoError(t, err)
	assert.Empty(t, verified.ID)
	assert.Equal(t, testIssuer, verified.Issuer)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), verified.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyRejectsWrongCategory(t *testing.T) {
	svc := newTokenService(t)

	pair, err := svc.IssuePair(userClaims("alice"))
	require.NoError(t, err)

	// Each verifier only accepts its own token kind even though both are
	// valid JWTs from this service.
	_, err = svc.VerifyAccess(pair.RefreshToken)
	require.Error(t, err)

	_, err = svc.VerifyRefresh(pair.AccessToken)
	require.Error(t, err)
}

func TestIssueTemporary(t *testing.T) {
	svc := newTokenService(t)

	t.Run("explicit ttl", func(t *testing.T) {
		token, err := svc.IssueTemporary(userClaims("alice"), time.Minute)
		require.NoError(t, err)

		claims, err := svc.VerifyTemporary(token)
		require.NoError(t, err)
		assert.Equal(t, jwtx.TokenTypeTemporary, claims.Type)
		assert.NotEmpty(t, claims.ID)
		assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("defaulted ttl", func(t *testing.T) {
		token, err := svc.IssueTemporary(userClaims("alice"), 0)
		require.NoError(t, err)

		claims, err := svc.VerifyTemporary(token)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("not valid as access token", func(t *testing.T) {
		token, err := svc.IssueTemporary(userClaims("alice"), time.Minute)
		require.NoError(t, err)

		_, err = svc.VerifyAccess(token)
		require.ErrorIs(t, err, jwtx.ErrWrongTokenType)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		next, err := svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{})
		require.NoError(t, err)

		assert.NotEqual(t, pair.AccessToken, next.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		claims, err := svc.VerifyAccess(next.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
	})

	t.Run("new refresh token gets a new jti", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		old, err := svc.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)

		next, err := svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{})
		require.NoError(t, err)

		fresh, err := svc.VerifyRefresh(next.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, old.ID, fresh.ID)
	})

	t.Run("rejects revoked token", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		require.NoError(t, svc.Revoke(t.Context(), pair.RefreshToken))

		_, err = svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{})
		require.ErrorIs(t, err, service.ErrRevoked)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		svc := newTokenService(t)
		_, err := svc.Refresh(t.Context(), "not-a-jwt", service.RefreshOptions{})
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("revocation hook wins over blacklist", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		var sawJTI string
		_, err = svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{
			CheckRevoked: func(ctx context.Context, jti string) (bool, error) {
				sawJTI = jti
				return true, nil
			},
		})
		require.ErrorIs(t, err, service.ErrRevoked)
		assert.NotEmpty(t, sawJTI)
	})

	t.Run("revocation check error fails closed", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		storeDown := errors.New("store down")
		_, err = svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{
			CheckRevoked: func(ctx context.Context, jti string) (bool, error) {
				return false, storeDown
			},
		})
		require.ErrorIs(t, err, storeDown)
	})

	t.Run("update claims hook changes the new pair", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		next, err := svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{
			UpdateClaims: func(ctx context.Context, claims jwtx.Claims) (jwtx.Claims, error) {
				claims.Roles = []string{"admin"}
				claims.Permissions = []string{"keys:rotate"}
				return claims, nil
			},
		})
		require.NoError(t, err)

		claims, err := svc.VerifyAccess(next.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin"}, claims.Roles)
		assert.True(t, claims.HasPermission("keys:rotate"))
	})

	t.Run("update claims error fails the refresh", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		boom := errors.New("directory unavailable")
		_, err = svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{
			UpdateClaims: func(ctx context.Context, claims jwtx.Claims) (jwtx.Claims, error) {
				return jwtx.Claims{}, boom
			},
		})
		require.ErrorIs(t, err, boom)
	})

	t.Run("old token stays valid by default", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		_, err = svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{})
		require.NoError(t, err)

		_, err = svc.Refresh(t.Context(), pair.RefreshToken, service.RefreshOptions{})
		require.NoError(t, err)
	})
}

func TestRevoke(t *testing.T) {
	t.Run("revokes a refresh token", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		require.NoError(t, svc.Revoke(t.Context(), pair.RefreshToken))

		claims, err := svc.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err, "the signature itself stays valid")

		revoked, err := svc.Blacklist.Has(t.Context(), claims.ID)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("missing jti", func(t *testing.T) {
		svc := newTokenService(t)
		pair, err := svc.IssuePair(userClaims("alice"))
		require.NoError(t, err)

		err = svc.Revoke(t.Context(), pair.AccessToken)
		require.ErrorIs(t, err, service.ErrMissingJTI)
	})

	t.Run("malformed token", func(t *testing.T) {
		svc := newTokenService(t)
		err := svc.Revoke(t.Context(), "not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("no blacklist wired", func(t *testing.T) {
		svc := newTokenService(t)
		svc.Blacklist = nil

		err := svc.Revoke(t.Context(), "anything")
		require.ErrorIs(t, err, service.ErrNoBlacklist)
	})

	t.Run("expired token gets zero ttl", func(t *testing.T) {
		svc := newTokenService(t)

		// Sign an already-expired refresh token directly; Revoke decodes
		// without verifying so it must still be accepted.
		expired := jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				ID:        "expired-jti",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			Type: jwtx.TokenTypeRefresh,
		}
		token, err := jwtx.Sign(expired, svc.Keychain.Secret(jwtx.CategoryRefresh))
		require.NoError(t, err)

		recorder := &recordingBlacklist{}
		svc.Blacklist = recorder

		require.NoError(t, svc.Revoke(t.Context(), token))
		assert.Equal(t, "expired-jti", recorder.jti)
		assert.Equal(t, time.Duration(0), recorder.ttl)
	})
}

type recordingBlacklist struct {
	jti string
	ttl time.Duration
}

func (r *recordingBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	r.jti, r.ttl = jti, ttl
	return nil
}

func (r *recordingBlacklist) Has(context.Context, string) (bool, error) {
	return false, nil
}


