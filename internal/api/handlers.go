package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"automation-console/backend/pkg/models"
)

// HandleHealth reports liveness together with a store ping. A failed ping
// turns the response into a 503.
func (s *Server) HandleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := models.HealthStatus{
		Status:    "ok",
		Service:   "automation-console",
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{"store": "ok"},
	}
	code := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check: store ping failed", "error", err)
		status.Status = "degraded"
		status.Checks["store"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
