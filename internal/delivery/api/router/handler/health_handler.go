package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"identity/internal/delivery/api/response"
	deliverycontext "identity/internal/delivery/context"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const healthPingTimeout = 2 * time.Second

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHealthHandler is the constructor for HealthHandler.
func NewHealthHandler(db *gorm.DB, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Check answers 200 when the database responds to a ping, 503 otherwise.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Warn("Health check failed", slog.Any("error", err))

		return respond(c, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
	}

	return respond(c, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}

func (h *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func respond(c echo.Context, status int, data any) error {
	return response.Success(c, status, data)
}
