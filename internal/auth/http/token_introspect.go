package http

import (
	"net/http"
	"strings"

	"github.com/cinderauth/cinder/internal/auth/service"
	"github.com/cinderauth/cinder/pkg/httpx"
)

// IntrospectionResponse is the RFC 7662-style view of a token. For an
// inactive token only "active" is returned, everything else would leak
// metadata about a credential we just declared dead.
type IntrospectionResponse struct {
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

// IntrospectHandler serves POST /v1/token/introspect. It verifies the
// provided access token and reports its claims.
type IntrospectHandler struct {
	TokenService *service.TokenService
}

func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		httpx.WriteError(w, http.StatusUnsupportedMediaType,
			"invalid_request", "expected application/x-www-form-urlencoded")
		return
	}

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	claims, err := h.TokenService.VerifyAccess(token)
	if err != nil {
		httpx.WriteJSON(w, http.StatusOK, IntrospectionResponse{Active: false})
		return
	}

	resp := IntrospectionResponse{
		Active:      true,
		TokenType:   string(claims.Type),
		Sub:         claims.Subject,
		Username:    claims.Username,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
		Iss:         claims.Issuer,
		Aud:         claims.Audience,
		Jti:         claims.ID,
	}
	if claims.ExpiresAt != nil {
		resp.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		resp.Iat = claims.IssuedAt.Unix()
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
