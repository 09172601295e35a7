package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/healthfirst-provider/config"
	"github.com/oksasatya/healthfirst-provider/internal/domain/repository"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/metrics"
	"github.com/oksasatya/healthfirst-provider/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg          *config.Config
	logger       *logrus.Logger
	providerRepo repository.ProviderRepository
	hasher       *helpers.PasswordHasher
	redisClient  *redis.Client
	rabbitPub    *helpers.RabbitPublisher
	esClient     *elasticsearch.Client
	appMetrics   *metrics.Metrics
	gatherer     prometheus.Gatherer
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger != nil {
		return logger
	}
	return logrus.StandardLogger()
}

func SetProviderRepo(r repository.ProviderRepository) { providerRepo = r }
func GetProviderRepo() repository.ProviderRepository  { return providerRepo }

func SetHasher(h *helpers.PasswordHasher) { hasher = h }
func GetHasher() *helpers.PasswordHasher {
	if hasher != nil {
		return hasher
	}
	return helpers.NewPasswordHasher(helpers.DefaultBcryptCost)
}

func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

// SetMetrics stores the application metrics and the gatherer served on /api/metrics.
func SetMetrics(m *metrics.Metrics, g prometheus.Gatherer) {
	appMetrics = m
	gatherer = g
}
func GetMetrics() *metrics.Metrics { return appMetrics }
func GetGatherer() prometheus.Gatherer {
	if gatherer != nil {
		return gatherer
	}
	return prometheus.DefaultGatherer
}
