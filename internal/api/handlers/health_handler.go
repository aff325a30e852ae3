package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/isdelr/projecthub-be/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// HealthHandler reports process and database health.
type HealthHandler struct {
	db      *sql.DB
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Check pings the database and samples the host.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, dbStatus, code := "ok", "ok", http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: database ping failed")
		status, dbStatus, code = "degraded", "unavailable", http.StatusServiceUnavailable
	}

	host, err := monitoring.SampleHost(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Health check: host stats unavailable")
	}

	writeJSON(w, code, map[string]any{
		"status":        status,
		"database":      dbStatus,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"host":          host,
	})
}
