package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinderauth/cinder/pkg/idx"
)

// Default token TTLs. Short access tokens, long refresh tokens,
// very short temporary tokens for single-purpose links.
const (
	DefaultAccessTokenTTL    = 15 * time.Minute
	DefaultRefreshTokenTTL   = 7 * 24 * time.Hour
	DefaultTemporaryTokenTTL = 5 * time.Minute
)

// TokenType tags what a token is for. Verification rejects a token
// presented for the wrong purpose even when the signature checks out.
type TokenType string

const (
	TokenTypeAccess    TokenType = "access"
	TokenTypeRefresh   TokenType = "refresh"
	TokenTypeTemporary TokenType = "temporary"
)

// Claims is the payload we embed in every token. We are keeping changes
// additive to preserve wire compatibility for later.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user, display purposes mostly.
	Username string `json:"username,omitempty"`

	// Roles the user holds ("admin", "staff").
	Roles []string `json:"roles,omitempty"`

	// Permissions granted to the user ("orders:read", "keys:rotate").
	Permissions []string `json:"permissions,omitempty"`

	// Perm mirrors Permissions as a presence map so consumers get O(1)
	// lookups without rebuilding a set on every request.
	Perm map[string]bool `json:"perm,omitempty"`

	// Type is the token category tag, see TokenType.
	Type TokenType `json:"type,omitempty"`
}

// NewJTI returns a lexicographically sortable unique identifier for the
// "jti" claim. ULIDs embed a timestamp which is handy when eyeballing
// revocation entries.
func NewJTI() string {
	return idx.New().String()
}

// Sanitized returns a copy with every field the issuer owns cleared out.
// Callers hand us identity data; they don't get to smuggle in their own
// expiry, token type, or jti alongside it.
func (c Claims) Sanitized() Claims {
	c.RegisteredClaims = jwt.RegisteredClaims{Subject: c.Subject}
	c.Type = ""
	c.Perm = nil
	return c
}

// HasPermission reports whether a single permission is present, checking
// the presence map first and falling back to the list. Malformed or empty
// claims simply report false.
func (c *Claims) HasPermission(perm string) bool {
	if c == nil || perm == "" {
		return false
	}
	if c.Perm != nil && c.Perm[perm] {
		return true
	}
	return slices.Contains(c.Permissions, perm)
}

// HasAllPermissions reports whether every listed permission is present
// (AND semantics). An empty requirement is trivially satisfied.
func (c *Claims) HasAllPermissions(perms []string) bool {
	if c == nil {
		return false
	}
	for _, p := range perms {
		if !c.HasPermission(p) {
			return false
		}
	}
	return true
}

// PermissionMap builds the presence map for a permission list.
func PermissionMap(perms []string) map[string]bool {
	if len(perms) == 0 {
		return nil
	}
	m := make(map[string]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}

// ValidateIssuer checks the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateType checks the token category tag.
func (c *Claims) ValidateType(expected TokenType) error {
	if c.Type != expected {
		return ErrWrongTokenType
	}
	return nil
}
