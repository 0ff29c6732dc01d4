package domain

import "time"

// TokenPair is what a successful issuance or refresh hands back: the
// short-lived access token and the long-lived refresh token, both JWTs.
// RefreshExpiresAt is always at or after AccessExpiresAt.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"

	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`

	// ExpiresIn is the number of seconds until the access token expires,
	// measured from issuance.
	ExpiresIn int64 `json:"expires_in"`
}
