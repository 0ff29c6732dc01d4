package httpx

import (
	"net/http"
	"strings"
)

// RequireAllPermissions gates a handler on the caller holding every
// listed permission (AND semantics). Requests without claims, or with
// claims missing any permission, get a 403. Run this inside
// Authenticate.
func RequireAllPermissions(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.HasAllPermissions(required) {
				writePermissionError(w, required...)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission is the single-permission convenience form.
func RequirePermission(required string) Middleware {
	return RequireAllPermissions(required)
}

// RFC 6750-compliant error response for insufficient permissions.
func writePermissionError(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "insufficient_permissions",
		"caller lacks required permissions: "+strings.Join(required, " "))
}
