package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinderauth/cinder/internal/auth/domain"
	"github.com/cinderauth/cinder/internal/auth/store"
	"github.com/cinderauth/cinder/pkg/jwtx"
)

var (
	// ErrRevoked reports a refresh token whose jti is on the blacklist.
	ErrRevoked = errors.New("service: token revoked")

	// ErrMissingJTI reports an attempt to revoke a token that carries no
	// jti. Access tokens are not individually revocable: revoking a
	// session means revoking its refresh token and waiting out the short
	// access token lifetime.
	ErrMissingJTI = errors.New("service: token has no jti")

	// ErrTokenIssuance wraps signing failures. These are infrastructure
	// faults, not client errors.
	ErrTokenIssuance = errors.New("service: token issuance failed")

	// ErrNoBlacklist reports a revocation attempt with no store wired in.
	ErrNoBlacklist = errors.New("service: no revocation store configured")
)

// TokenService owns issuance, verification, refresh and revocation of
// session credentials. It is constructed once with validated
// configuration and passed by reference to consumers; all methods are
// safe for concurrent use.
type TokenService struct {
	Keychain *jwtx.Keychain

	// Blacklist is the external revocation store. Optional: when nil,
	// Refresh skips the revocation check and Revoke fails.
	Blacklist store.Blacklist

	Issuer   string
	Audience []string

	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	TemporaryTTL time.Duration
}

// IssueAccess signs an access token for the given identity claims.
// Reserved fields the issuer owns (expiry, type, jti and friends) are
// stamped fresh; whatever the caller put there is discarded.
func (s *TokenService) IssueAccess(claims jwtx.Claims) (string, error) {
	token, _, err := s.issue(claims, jwtx.TokenTypeAccess, s.AccessTTL)
	return token, err
}

// IssueRefresh signs a refresh token with a fresh jti so it can be
// individually revoked later.
func (s *TokenService) IssueRefresh(claims jwtx.Claims) (string, error) {
	token, _, err := s.issue(claims, jwtx.TokenTypeRefresh, s.RefreshTTL)
	return token, err
}

// IssueTemporary signs a short-lived single-purpose token (email
// verification links and the like). Not for session auth. A
// non-positive ttl falls back to the configured temporary TTL.
func (s *TokenService) IssueTemporary(claims jwtx.Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.temporaryTTL()
	}
	token, _, err := s.issue(claims, jwtx.TokenTypeTemporary, ttl)
	return token, err
}

// IssuePair issues an access/refresh token pair for one identity. The
// refresh token always outlives the access token under any sane TTL
// configuration; the expiries land in the returned pair along with the
// derived expires_in seconds.
func (s *TokenService) IssuePair(claims jwtx.Claims) (domain.TokenPair, error) {
	now := time.Now()

	access, accessExp, err := s.issue(claims, jwtx.TokenTypeAccess, s.AccessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, refreshExp, err := s.issue(claims, jwtx.TokenTypeRefresh, s.RefreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		ExpiresIn:        int64(accessExp.Sub(now).Seconds()),
	}, nil
}

// IssuePairWithPermissions embeds a permission list (and its presence
// map) into the claims before issuing the pair.
func (s *TokenService) IssuePairWithPermissions(claims jwtx.Claims, permissions []string) (domain.TokenPair, error) {
	claims.Permissions = permissions
	return s.IssuePair(claims)
}

// VerifyAccess validates a token against the access secret and rejects
// anything not tagged as an access token.
func (s *TokenService) VerifyAccess(token string) (jwtx.Claims, error) {
	return s.verify(token, jwtx.CategoryAccess, jwtx.TokenTypeAccess)
}

// VerifyRefresh validates a token against the refresh secret and rejects
// anything not tagged as a refresh token.
func (s *TokenService) VerifyRefresh(token string) (jwtx.Claims, error) {
	return s.verify(token, jwtx.CategoryRefresh, jwtx.TokenTypeRefresh)
}

// VerifyTemporary validates a temporary token. These ride on the access
// secret but carry their own category tag.
func (s *TokenService) VerifyTemporary(token string) (jwtx.Claims, error) {
	return s.verify(token, jwtx.CategoryAccess, jwtx.TokenTypeTemporary)
}

// RefreshOptions carries the optional hooks a caller can inject into a
// refresh.
type RefreshOptions struct {
	// CheckRevoked overrides the service blacklist for this call. It
	// receives the refresh token's jti; reporting true rejects the
	// refresh with ErrRevoked. Errors fail the refresh (fail closed).
	CheckRevoked func(ctx context.Context, jti string) (bool, error)

	// UpdateClaims lets the caller refresh role/permission data from
	// their own source of truth before the new pair is issued. Errors
	// fail the refresh.
	UpdateClaims func(ctx context.Context, claims jwtx.Claims) (jwtx.Claims, error)
}

// Refresh exchanges a valid refresh token for a brand new token pair.
// This is the only operation that legitimately extends a session's
// lifetime. The old refresh token is NOT invalidated here: callers that
// want single-use refresh semantics revoke the old token after a
// successful exchange.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string, opts RefreshOptions) (domain.TokenPair, error) {
	// 1. Verify signature, expiry and category of the presented token.
	claims, err := s.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// 2. Revocation check. An injected hook wins over the wired
	// blacklist; any error on either path denies the refresh.
	revoked, err := s.checkRevoked(ctx, claims.ID, opts.CheckRevoked)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("service: revocation check: %w", err)
	}
	if revoked {
		return domain.TokenPair{}, ErrRevoked
	}

	// 3. Let the caller refresh role/permission data before re-issuance.
	if opts.UpdateClaims != nil {
		claims, err = opts.UpdateClaims(ctx, claims)
		if err != nil {
			return domain.TokenPair{}, fmt.Errorf("service: update claims: %w", err)
		}
	}

	// 4. Issue a completely new pair. issue() re-stamps every reserved
	// field, so the stale expiry and jti on the decoded claims are
	// discarded along the way.
	return s.IssuePair(claims)
}

func (s *TokenService) checkRevoked(
	ctx context.Context,
	jti string,
	hook func(ctx context.Context, jti string) (bool, error),
) (bool, error) {
	switch {
	case hook != nil:
		return hook(ctx, jti)
	case s.Blacklist != nil:
		return s.Blacklist.Has(ctx, jti)
	default:
		return false, nil
	}
}

// Revoke decodes a token (decode, not verify: revocation must work on an
// already-expired token that a store hasn't purged yet), computes the
// remaining lifetime, and lists the jti on the blacklist for exactly
// that long. The TTL handed to the store is never negative; an expired
// token gets zero.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	if s.Blacklist == nil {
		return ErrNoBlacklist
	}

	claims, err := jwtx.Decode(token)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return ErrMissingJTI
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = max(time.Until(claims.ExpiresAt.Time), 0)
	}

	if err := s.Blacklist.Add(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("service: blacklist add: %w", err)
	}
	return nil
}

// issue stamps the reserved claims for a category and signs. The input
// claims are sanitised first so callers can't smuggle their own expiry,
// type, jti or permission map past the issuer.
func (s *TokenService) issue(claims jwtx.Claims, typ jwtx.TokenType, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	c := claims.Sanitized()
	c.Issuer = s.Issuer
	c.Audience = append([]string(nil), s.Audience...)
	c.IssuedAt = jwt.NewNumericDate(now)
	c.NotBefore = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(expiresAt)
	c.Type = typ
	c.Perm = jwtx.PermissionMap(c.Permissions)

	// Only refresh and temporary tokens are individually revocable, so
	// only they carry a jti.
	if typ == jwtx.TokenTypeRefresh || typ == jwtx.TokenTypeTemporary {
		c.ID = jwtx.NewJTI()
	}

	token, err := jwtx.Sign(c, s.Keychain.Secret(categoryFor(typ)))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenIssuance, err)
	}

	return token, expiresAt, nil
}

func (s *TokenService) verify(token string, category jwtx.Category, typ jwtx.TokenType) (jwtx.Claims, error) {
	return jwtx.Verify(token, s.Keychain.Secret(category), jwtx.VerifyOptions{
		Issuer:   s.Issuer,
		Audience: s.Audience,
		Type:     typ,
	})
}

func (s *TokenService) temporaryTTL() time.Duration {
	if s.TemporaryTTL > 0 {
		return s.TemporaryTTL
	}
	return jwtx.DefaultTemporaryTokenTTL
}

func categoryFor(typ jwtx.TokenType) jwtx.Category {
	if typ == jwtx.TokenTypeRefresh {
		return jwtx.CategoryRefresh
	}
	return jwtx.CategoryAccess
}
