package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/config"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/database"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/kafka"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/logger"
	redisinfra "github.com/ksalhab89/coupon-system-auth/internal/infra/redis"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/security"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/telemetry"
	memrepo "github.com/ksalhab89/coupon-system-auth/internal/repository/memory"
	pgrepo "github.com/ksalhab89/coupon-system-auth/internal/repository/postgres"
	redisrepo "github.com/ksalhab89/coupon-system-auth/internal/repository/redis"
	"github.com/ksalhab89/coupon-system-auth/internal/transport/http/handlers"
	"github.com/ksalhab89/coupon-system-auth/internal/transport/http/middleware"
	"github.com/ksalhab89/coupon-system-auth/internal/transport/http/routes"
	"github.com/ksalhab89/coupon-system-auth/internal/usecase"
)

const registryCleanupInterval = 15 * time.Minute

// App owns the wired dependency graph and the HTTP server lifecycle.
type App struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	router *gin.Engine

	pool        *pgxpool.Pool
	redisClient *redisinfra.Client
	producer    sarama.SyncProducer

	tokens  port.RefreshTokenStore
	limiter *middleware.RateLimiter
}

// New builds the full dependency graph from configuration. Redis and Kafka
// are optional: with Redis disabled the stores are in-process, and without
// brokers events go to the logging stub.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewAuthMetrics(cfg.Telemetry.MetricsNamespace, registry)

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, log: log, pool: pool}

	var (
		tokens   port.RefreshTokenStore
		lockouts port.LockoutStore
	)
	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, err
		}
		app.redisClient = client
		tokens = redisrepo.NewRefreshTokenStore(client.Client(), cfg.Redis.RefreshPrefix)
		lockouts = redisrepo.NewLockoutStore(client.Client(), cfg.Redis.LockoutPrefix)
	} else {
		log.Info("redis disabled, using in-process session stores")
		tokens = memrepo.NewRefreshTokenStore()
		lockouts = memrepo.NewLockoutStore()
	}
	app.tokens = tokens

	var events port.EventPublisher = kafka.NewStubPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Warn("kafka unavailable, falling back to stub publisher", zap.Error(err))
		} else {
			app.producer = producer
			events = kafka.NewPublisher(producer, cfg.Kafka.TopicPrefix, log)
		}
	}

	codec, err := security.NewTokenCodec(
		cfg.JWT.Secret,
		cfg.App.Name,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	if err != nil {
		app.closeClients()
		return nil, err
	}

	service := usecase.NewAuthService(
		codec,
		pgrepo.NewCompanyRepository(pool),
		pgrepo.NewCustomerRepository(pool),
		cfg.Admin,
		usecase.NewLockoutManager(lockouts, cfg.Lockout),
		tokens,
		events,
		metrics,
		log,
	)

	app.limiter = middleware.NewRateLimiter(cfg.RateLimit, metrics, log)

	checks := []handlers.ReadinessCheck{{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return pool.Ping(ctx) },
	}}
	if app.redisClient != nil {
		checks = append(checks, handlers.ReadinessCheck{
			Name:  "redis",
			Check: app.redisClient.HealthCheck,
		})
	}

	app.router = routes.New(routes.Deps{
		Logger:   log,
		Metrics:  metrics,
		Registry: registry,
		Limiter:  app.limiter,
		Verifier: service,
		Auth:     handlers.NewAuthHandler(service, log),
		Admin:    handlers.NewAdminHandler(service, log),
		Health:   handlers.NewHealthHandler(log, checks...),
	})

	return app, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully and closes every client.
func (a *App) Run(ctx context.Context) error {
	go a.limiter.Run(ctx)
	go a.cleanupLoop(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeClients()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown", zap.Error(err))
	}

	a.closeClients()
	return nil
}

// cleanupLoop periodically sweeps expired refresh token registry entries.
func (a *App) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(registryCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.tokens.CleanupExpired(ctx, time.Now())
			if err != nil {
				a.log.Warn("registry cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				a.log.Info("registry cleanup", zap.Int("removed", removed))
			}
		}
	}
}

func (a *App) closeClients() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
