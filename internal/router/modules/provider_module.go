package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/healthfirst-provider/internal/interface/http"
)

// ProviderModule wires provider registration routes under /v1/provider:
// POST /register, GET /validate, GET /search, GET /:id
type ProviderModule struct {
	Handler *handlers.ProviderHandler
}

func NewProviderModule(h *handlers.ProviderHandler) *ProviderModule {
	return &ProviderModule{Handler: h}
}

func (m *ProviderModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/v1/provider")
	{
		g.POST("/register", m.Handler.Register)
		g.GET("/validate", m.Handler.Validate)
		g.GET("/search", m.Handler.Search)
		g.GET("/:id", m.Handler.GetByID)
	}
}
