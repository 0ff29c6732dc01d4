package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cinderauth/cinder/pkg/httpx"
)

// ReadyCheck probes one dependency for the readiness endpoint.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ReadyzHandler runs every dependency check and reports 503 with a
// degraded status if any of them fail.
func ReadyzHandler(startTime time.Time, version string, checks []ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		statusCode := http.StatusOK
		results := make(map[string]string, len(checks))

		for _, c := range checks {
			if c.Check == nil {
				continue
			}
			if err := c.Check(r.Context()); err != nil {
				results[c.Name] = "error: " + err.Error()
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			results[c.Name] = "ok"
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  results,
		})
	}
}
