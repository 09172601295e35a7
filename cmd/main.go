package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/healthfirst-provider/config"
	"github.com/oksasatya/healthfirst-provider/internal/container"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/metrics"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/persistence"
	"github.com/oksasatya/healthfirst-provider/internal/router"
	"github.com/oksasatya/healthfirst-provider/pkg/helpers"
	"github.com/oksasatya/healthfirst-provider/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.Debug)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Persistence backend, resolved once; falls back to SQLite when unreachable
	repo, err := persistence.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open persistence backend: %v", err)
	}
	defer func() { _ = repo.Close() }()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetProviderRepo(repo)
	container.SetHasher(helpers.NewPasswordHasher(cfg.BcryptRounds))
	container.SetMetrics(metrics.New(prometheus.DefaultRegisterer), prometheus.DefaultGatherer)

	// Redis (optional provider read cache)
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Warn("redis unreachable; provider cache disabled")
			_ = rdb.Close()
		} else {
			container.SetRedis(rdb)
			defer func() { _ = rdb.Close() }()
		}
	}

	// RabbitMQ (optional registration email jobs)
	if cfg.RabbitMQURL != "" && cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unreachable; registration emails disabled")
		} else {
			container.SetRabbitPub(pub)
			defer pub.Close()
		}
	}

	// Elasticsearch (optional provider directory)
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch client init failed; provider search disabled")
		} else {
			container.SetES(es)
		}
	}

	r := router.NewEngine(cfg, logger)

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "backend": repo.Backend()}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}
