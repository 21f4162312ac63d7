// Package api exposes the agent's local control surface: health, capture
// status and toggling, and the Prometheus scrape endpoint. It replaces the
// web interface the firmware served for microphone control.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/device/usecase"
)

// InitRoutes initializes all local API routes
func InitRoutes(e *echo.Echo, service *usecase.StreamService, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "arunika-device",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	v1.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, service.Status())
	})

	v1.POST("/capture", func(c echo.Context) error {
		return setCapture(c, service, logger)
	})
}

// setCapture flips the capture flag. The operation is idempotent; posting
// the current state is a no-op.
func setCapture(c echo.Context, service *usecase.StreamService, logger *zap.Logger) error {
	var req CaptureRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind capture request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	service.SetEnabled(req.Enabled)
	return c.JSON(http.StatusOK, service.Status())
}
