package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cinderauth/cinder/internal/auth/service"
	"github.com/cinderauth/cinder/pkg/httpx"
	"github.com/cinderauth/cinder/pkg/jwtx"
	"github.com/cinderauth/cinder/pkg/slogx"
)

// RevokeHandler serves POST /v1/token/revoke following the RFC 7009
// posture: unknown or already-dead tokens still return 200 OK so the
// endpoint can't be used to probe which tokens exist. Only refresh and
// temporary tokens are revocable; access tokens have no jti and expire
// naturally.
type RevokeHandler struct {
	TokenService *service.TokenService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

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

	if err := h.TokenService.Revoke(ctx, token); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingJTI), errors.Is(err, jwtx.ErrMalformed):
			// Tokens without a jti and garbage tokens get 200 OK per the
			// scanning-resistance posture. Still worth a log line.
			log.Warn("revoke ignored", "err", err)
		default:
			// Blacklist failures and missing wiring must not look like
			// success: the token would still be live.
			log.Error("revoke failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "revocation unavailable")
			return
		}
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
