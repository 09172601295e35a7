package router

import (
	"github.com/oksasatya/healthfirst-provider/internal/application"
	"github.com/oksasatya/healthfirst-provider/internal/container"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/search"
	handlers "github.com/oksasatya/healthfirst-provider/internal/interface/http"
	"github.com/oksasatya/healthfirst-provider/internal/router/modules"
)

// BuildProviderService assembles the registration service from the container.
// Optional clients that are not configured stay nil and their side effect is skipped.
func BuildProviderService() *application.ProviderService {
	cfg := container.GetConfig()
	opts := []application.ServiceOption{application.WithMetrics(container.GetMetrics())}
	if rdb := container.GetRedis(); rdb != nil {
		opts = append(opts, application.WithCache(rdb, cfg.ProviderCacheTTL))
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		opts = append(opts, application.WithPublisher(pub, cfg))
	}
	if es := container.GetES(); es != nil {
		opts = append(opts, application.WithDirectory(search.NewProviderDirectory(es, cfg.ESProvidersIndex)))
	}
	return application.NewProviderService(
		container.GetProviderRepo(),
		container.GetHasher(),
		container.GetLogger(),
		opts...,
	)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := BuildProviderService()

	r.Add(modules.NewProviderModule(handlers.NewProviderHandler(svc, container.GetLogger())))
	if cfg.MetricsEnabled {
		r.Add(modules.NewMetricsModule(container.GetGatherer()))
	}
	r.AddRoot(modules.NewHealthModule(handlers.NewHealthHandler(svc, cfg)))
}
