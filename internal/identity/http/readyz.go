package http

import (
	"net/http"
	"time"

	"github.com/egx/identity/internal/identity/store"
)

// ReadyzHandler is the readiness probe: 503 while the database is
// unreachable, 200 once the service can take traffic.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := healthPayload{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		status := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			payload.Status = "degraded"
			payload.Database = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		}

		writeData(w, status, payload)
	}
}
