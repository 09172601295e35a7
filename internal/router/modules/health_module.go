package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/healthfirst-provider/internal/interface/http"
)

// HealthModule serves GET / and GET /health on the engine root.
type HealthModule struct {
	Handler *handlers.HealthHandler
}

func NewHealthModule(h *handlers.HealthHandler) *HealthModule {
	return &HealthModule{Handler: h}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", m.Handler.Root)
	rg.GET("/health", m.Handler.Health)
}
