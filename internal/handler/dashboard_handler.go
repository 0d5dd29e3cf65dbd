package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/response"
)

type DashboardHandler struct {
	dashboard DashboardAPI
	log       zerolog.Logger
}

func NewDashboardHandler(dashboard DashboardAPI, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		log:       log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// GetStats godoc
// GET /api/v1/hr/dashboard
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
