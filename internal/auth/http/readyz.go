package http

import (
	"net/http"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/internal/auth/tenant"
	"github.com/nordbooks/tenauth/pkg/httpx"
)

// ReadyzHandler checks the critical dependencies: the credential store and
// the tenant directory.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	dir tenant.Directory,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{
			Database:  "ok",
			Directory: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check database connectivity
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Check that the tenant directory answers
		if _, err := dir.ListTenants(r.Context()); err != nil {
			checks.Directory = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, healthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
