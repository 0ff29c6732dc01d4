package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cinderauth/cinder/internal/auth/service"
	"github.com/cinderauth/cinder/pkg/httpx"
	"github.com/cinderauth/cinder/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	TokenService       *service.TokenService
	KeyRotationService *service.KeyRotationService

	// Readiness hooks, nil entries are skipped.
	ReadyChecks []ReadyCheck

	// CookieName is the cookie consulted as the last token fallback.
	CookieName string

	// RevokeOldRefreshTokens enables single-use refresh tokens.
	RevokeOldRefreshTokens bool
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// ApplyRoutes registers every endpoint. Call once after the services
// are wired.
func (r *Router) ApplyRoutes() {
	authnOpts := httpx.AuthnOptions{CookieName: r.CookieName}

	r.Mux.Handle("POST /v1/token/refresh",
		httpx.Chain(&RefreshHandler{TokenService: r.TokenService, RevokeOldToken: r.RevokeOldRefreshTokens},
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	r.Mux.Handle("POST /v1/token/revoke",
		httpx.Chain(&RevokeHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	r.Mux.Handle("POST /v1/token/introspect",
		httpx.Chain(&IntrospectHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		))

	// Rotation is an authenticated admin operation: the caller's access
	// token must carry the keys:rotate permission.
	r.Mux.Handle("POST /v1/keys/rotate",
		httpx.Chain(&RotateHandler{KeyRotationService: r.KeyRotationService},
			httpx.RateLimitByIP(httpx.StrictLimit),
			httpx.Authenticate(r.TokenService, authnOpts),
			httpx.RequirePermission("keys:rotate"),
		))

	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.ReadyChecks))
}
