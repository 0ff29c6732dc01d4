package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cinderauth/cinder/internal/auth/service"
	"github.com/cinderauth/cinder/pkg/cryptox"
	"github.com/cinderauth/cinder/pkg/httpx"
	"github.com/cinderauth/cinder/pkg/jwtx"
)

// RotateRequest is the body for POST /v1/keys/rotate. NewSecret is
// optional; when omitted a random secret is generated server side, which
// is the safer default since the new material never crosses the wire.
type RotateRequest struct {
	Category  string `json:"category"`
	NewSecret string `json:"new_secret,omitempty"`
}

// RotateHandler serves POST /v1/keys/rotate. The route is mounted behind
// authentication plus the keys:rotate permission.
type RotateHandler struct {
	KeyRotationService *service.KeyRotationService
}

func (h *RotateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.KeyRotationService == nil {
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "key rotation is not configured")
		return
	}

	var req RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	var category jwtx.Category
	switch req.Category {
	case string(jwtx.CategoryAccess):
		category = jwtx.CategoryAccess
	case string(jwtx.CategoryRefresh):
		category = jwtx.CategoryRefresh
	default:
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "category must be \"access\" or \"refresh\"")
		return
	}

	secret := req.NewSecret
	if secret == "" {
		generated, err := cryptox.GenerateSecret(jwtx.GeneratedSecretBytes)
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "failed to generate secret")
			return
		}
		secret = generated
	}

	result, err := h.KeyRotationService.Rotate(r.Context(), category, secret)
	if err != nil {
		if errors.Is(err, jwtx.ErrWeakSecret) {
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "secret is too short")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}
