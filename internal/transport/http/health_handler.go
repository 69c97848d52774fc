package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness information for the API.
type HealthHandler struct {
	version string
	started time.Time
	store   Pinger
	logger  *slog.Logger
}

// HealthStatus is the payload of GET /api/health.
type HealthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	UptimeSec int64  `json:"uptime_seconds"`
	Store     string `json:"store"`
	Timestamp string `json:"timestamp"`
}

func NewHealthHandler(version string, store Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		version: version,
		started: time.Now(),
		store:   store,
		logger:  logger.With(slog.String("component", "health_handler")),
	}
}

// Health handles GET /api/health. The endpoint stays 200 while the
// process is up; a broken store is reported in the payload so probes
// keep the process alive but dashboards show the degradation.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	storeState := "ok"
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			storeState = "unavailable"
			h.logger.WarnContext(r.Context(), "snapshot store unreachable",
				slog.String("error", err.Error()))
		}
	} else {
		storeState = "disabled"
	}

	status := "healthy"
	if storeState == "unavailable" {
		status = "degraded"
	}

	render.JSON(w, r, dataResponse{Success: true, Data: HealthStatus{
		Status:    status,
		Version:   h.version,
		UptimeSec: int64(time.Since(h.started).Seconds()),
		Store:     storeState,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}})
}
