package jwtx

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// VerifyOptions captures what a verification is expected to enforce on
// top of the signature: who minted the token, who it's for, and which
// category tag it must carry.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Type the token must be tagged with. Empty means "don't care".
	Type TokenType
}

// Sign serialises claims into a compact HS256 JWT under the given secret.
// Signing is pure: same claims, same secret, same token.
func Sign(claims Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrWeakSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses and validates a token against a secret. It never returns
// claims for a token whose signature doesn't match, whose issuer/audience
// mismatches, whose current time falls outside [nbf, exp], or whose
// category tag isn't the expected one.
func Verify(tokenStr string, secret []byte, opts VerifyOptions) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, translateParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	// Issuer/audience/type are enforced here rather than through parser
	// options so every failure maps onto one sentinel.
	if err := claims.ValidateIssuer(opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(opts.Audience); err != nil {
		return Claims{}, err
	}
	if opts.Type != "" {
		if err := claims.ValidateType(opts.Type); err != nil {
			return Claims{}, err
		}
	}

	return *claims, nil
}

// Decode parses a token WITHOUT verifying its signature or expiry. This
// exists for introspecting tokens the caller does not yet trust, e.g.
// reading the jti of an already-expired token during revocation. Never
// treat the result as authenticated.
func Decode(tokenStr string) (Claims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return Claims{}, ErrMalformed
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrMalformed
	}

	return *claims, nil
}
