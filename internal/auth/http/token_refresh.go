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

// RefreshHandler serves POST /v1/token/refresh. It exchanges a valid
// refresh token for a new token pair.
//
// When RevokeOldToken is set, a successful exchange also blacklists the
// presented refresh token, giving single-use refresh semantics. The
// default leaves the old token valid until it expires or is explicitly
// revoked.
type RefreshHandler struct {
	TokenService   *service.TokenService
	RevokeOldToken bool
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	refreshToken := r.Form.Get("refresh_token")
	if refreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.TokenService.Refresh(ctx, refreshToken, service.RefreshOptions{})
	if err != nil {
		log.Info("refresh rejected", "err", err)
		writeRefreshError(w, err)
		return
	}

	if h.RevokeOldToken {
		// Single-use semantics: the old token dies with the exchange. A
		// failure here is logged but doesn't claw back the new pair.
		if err := h.TokenService.Revoke(ctx, refreshToken); err != nil {
			log.Error("failed to revoke exchanged refresh token", "err", err)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

func writeRefreshError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRevoked),
		errors.Is(err, jwtx.ErrExpired),
		errors.Is(err, jwtx.ErrNotYetValid),
		errors.Is(err, jwtx.ErrInvalidSignature),
		errors.Is(err, jwtx.ErrWrongTokenType),
		errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrIssuer),
		errors.Is(err, jwtx.ErrAudience):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "refresh token rejected")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "refresh failed")
	}
}
