package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")
	ErrExpired          = errors.New("jwtx: token expired")
	ErrNotYetValid      = errors.New("jwtx: token not yet valid")
	ErrWrongTokenType   = errors.New("jwtx: wrong token type")

	ErrIssuer   = errors.New("jwtx: issuer mismatch")
	ErrAudience = errors.New("jwtx: audience mismatch")

	ErrWeakSecret = errors.New("jwtx: secret shorter than 16 characters")
)

// translateParseError maps golang-jwt parser failures onto our error
// vocabulary so callers can errors.Is against sentinels instead of
// matching library error strings.
func translateParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrInvalidSignature
	}
}
