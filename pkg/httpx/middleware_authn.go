package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cinderauth/cinder/pkg/jwtx"
	"github.com/cinderauth/cinder/pkg/slogx"
)

// ErrMissingToken reports that no credential was presented at all.
var ErrMissingToken = errors.New("httpx: no bearer token presented")

// TokenVerifier is the slice of the token service the middleware needs.
type TokenVerifier interface {
	VerifyAccess(token string) (jwtx.Claims, error)
}

// ErrorHandler lets callers replace the structured 401 response, e.g. to
// redirect browsers to a login page.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// AuthnOptions configures token extraction and error handling.
type AuthnOptions struct {
	// QueryParam is the query parameter checked when no Authorization
	// header is present. Defaults to "token".
	QueryParam string

	// CookieName is the cookie checked last. Empty disables cookie
	// extraction.
	CookieName string

	// OnError is invoked when a required authentication fails. Defaults
	// to an RFC 6750 style 401 response.
	OnError ErrorHandler
}

// Authenticate returns middleware that requires a verified access token.
// Extraction order: Authorization header (Bearer), query parameter,
// cookie. On failure the error handler runs and the request stops. On
// success the claims and raw token are attached to the request context.
func Authenticate(v TokenVerifier, opts AuthnOptions) Middleware {
	return authn(v, opts, true)
}

// AuthenticateOptional returns middleware that attaches claims when a
// valid token is presented but lets the request through either way.
// Authentication failures are logged, never fatal; anonymous requests
// simply carry no claims.
func AuthenticateOptional(v TokenVerifier, opts AuthnOptions) Middleware {
	return authn(v, opts, false)
}

func authn(v TokenVerifier, opts AuthnOptions, required bool) Middleware {
	queryParam := opts.QueryParam
	if queryParam == "" {
		queryParam = "token"
	}
	onError := opts.OnError
	if onError == nil {
		onError = defaultAuthError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := extractToken(r, queryParam, opts.CookieName)
			if raw == "" {
				if required {
					onError(w, r, ErrMissingToken)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.VerifyAccess(raw)
			if err != nil {
				if required {
					log.Warn("access token verification failed", "err", err)
					onError(w, r, err)
					return
				}
				// Optional auth swallows the authentication failure and
				// nothing else: the request continues unauthenticated.
				log.Debug("optional auth: token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims, raw)))
		})
	}
}

// extractToken checks the Authorization header first, then the query
// parameter, then the cookie. The header always wins when several are
// present.
func extractToken(r *http.Request, queryParam, cookieName string) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}

	if tok := r.URL.Query().Get(queryParam); tok != "" {
		return tok
	}

	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	return ""
}

// defaultAuthError writes an RFC 6750-compliant bearer challenge.
func defaultAuthError(w http.ResponseWriter, _ *http.Request, err error) {
	desc := "token verification failed"
	if errors.Is(err, ErrMissingToken) {
		desc = "missing bearer token"
	}

	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
