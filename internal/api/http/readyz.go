package http

import (
	"net/http"
	"time"

	"github.com/sneakdex/sneakdex-api/internal/api/store"
	"github.com/sneakdex/sneakdex-api/pkg/apisdk"
	"github.com/sneakdex/sneakdex-api/pkg/httpx"
)

// ReadyzHandler is the readiness probe. It checks the one hard dependency,
// the store, and reports 503 while it is unreachable.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &apisdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, apisdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
