package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/interfaces/httpserver/responses"
)

const readinessTimeout = 2 * time.Second

// ReadinessChecker reports whether the backing services can take traffic.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
	IsAvailable() bool
}

type HealthHandler struct {
	checker ReadinessChecker
	log     zerolog.Logger
}

func NewHealthHandler(checker ReadinessChecker, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		log:     log.With().Str("handler", "health").Logger(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{OK: true})
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Readiness handles GET /readyz. An unavailable cache is reported but does not fail readiness.
func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := responses.ReadinessResponse{Status: "ready", Database: "ok", Cache: "unavailable"}
	if h.checker == nil {
		c.JSON(http.StatusOK, resp)
		return
	}
	if h.checker.IsAvailable() {
		resp.Cache = "ok"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()
	if err := h.checker.Ready(ctx); err != nil {
		h.log.Warn().Err(err).Msg("readiness check failed")
		resp.Status = "not_ready"
		resp.Database = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}
