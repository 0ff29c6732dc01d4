package authsdk

// TokenResponse is the body of a successful refresh exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`

	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
	ExpiresIn        int64  `json:"expires_in"`
}

// IntrospectionResult reports whether a token is live and, if so, its
// claims. An inactive token only carries Active=false.
type IntrospectionResult struct {
	Active bool `json:"active"`

	TokenType   string   `json:"token_type,omitempty"`
	Sub         string   `json:"sub,omitempty"`
	Username    string   `json:"username,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Exp         int64    `json:"exp,omitempty"`
	Iat         int64    `json:"iat,omitempty"`
	Iss         string   `json:"iss,omitempty"`
	Aud         []string `json:"aud,omitempty"`
	Jti         string   `json:"jti,omitempty"`
}

// RotateKeyRequest asks the service to swap the signing secret for one
// token category. An empty NewSecret lets the server generate one.
type RotateKeyRequest struct {
	Category  string `json:"category"`
	NewSecret string `json:"new_secret,omitempty"`
}

// RotateKeyResponse describes a completed rotation. Only a fingerprint
// of the new secret is ever returned.
type RotateKeyResponse struct {
	Category          string `json:"category"`
	SecretFingerprint string `json:"secret_fingerprint"`
	Persisted         bool   `json:"persisted"`
	RotatedAt         string `json:"rotated_at"`
}

// HealthResponse is returned by the /livez and /readyz probes.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the service's standard error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
