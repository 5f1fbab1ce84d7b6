package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/knowledgemap/internal/app/models/dto"
	"github.com/yigit/knowledgemap/internal/middleware"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
)

// Pinger reports whether the storage backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness and readiness probes
type HealthController struct {
	storage Pinger
	driver  string
}

// NewHealthController creates a new HealthController
func NewHealthController(storage Pinger, driver string) *HealthController {
	return &HealthController{storage: storage, driver: driver}
}

// Ping is a liveness probe
// @Summary Ping
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *HealthController) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Health checks storage connectivity
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.HealthResponse}
// @Failure 503 {object} dto.ErrorResponse "Storage unavailable"
// @Router /health [get]
func (h *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Str("requestID", middleware.GetRequestID(ctx)).Msg("Health check failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "Storage unavailable").
				WithSeverity(dto.ErrorSeverityCritical)))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.HealthResponse{
		Status:  "ok",
		Storage: h.driver,
	}))
}
