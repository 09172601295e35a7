package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/healthfirst-provider/config"
	"github.com/oksasatya/healthfirst-provider/internal/application"
	"github.com/oksasatya/healthfirst-provider/pkg/response"
)

type HealthHandler struct {
	Svc *application.ProviderService
	Cfg *config.Config
}

func NewHealthHandler(svc *application.ProviderService, cfg *config.Config) *HealthHandler {
	return &HealthHandler{Svc: svc, Cfg: cfg}
}

type serviceInfo struct {
	Service  string `json:"service"`
	Version  string `json:"version"`
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
}

// Root handles GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	report := h.Svc.Health(c.Request.Context())
	info := serviceInfo{
		Service:  h.Cfg.AppName,
		Version:  h.Cfg.Version,
		Status:   "running",
		Backend:  report.Backend,
		Database: report.Database,
	}
	response.Success(c, http.StatusOK, info, "service info", nil)
}

// Health handles GET /health: 200 when the database answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.Svc.Health(c.Request.Context())
	if report.Status != application.StatusHealthy {
		c.JSON(http.StatusServiceUnavailable, response.APIResponse[application.HealthReport]{
			Status:    http.StatusServiceUnavailable,
			Timestamp: time.Now().UTC(),
			RequestID: c.GetString("request_id"),
			Success:   false,
			Message:   report.Status,
			Data:      report,
		})
		return
	}
	response.Success(c, http.StatusOK, report, report.Status, nil)
}
