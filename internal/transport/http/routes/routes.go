package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/telemetry"
	"github.com/ksalhab89/coupon-system-auth/internal/transport/http/handlers"
	"github.com/ksalhab89/coupon-system-auth/internal/transport/http/middleware"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Logger   *zap.Logger
	Metrics  *telemetry.AuthMetrics
	Registry *prometheus.Registry
	Limiter  *middleware.RateLimiter
	Verifier middleware.TokenVerifier
	Auth     *handlers.AuthHandler
	Admin    *handlers.AdminHandler
	Health   *handlers.HealthHandler
}

// New assembles the gin engine: probes and metrics outside the rate
// limiter, the auth API under the auth budget, and admin operations behind
// the admin role.
func New(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		middleware.Metrics(deps.Metrics),
	)

	router.GET("/healthz", deps.Health.Live)
	router.GET("/readyz", deps.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")

	auth := api.Group("/auth", deps.Limiter.Limit(middleware.ClassAuth))
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.POST("/logout", middleware.RequireAuth(deps.Verifier), deps.Auth.Logout)
		auth.POST("/logout_all", middleware.RequireAuth(deps.Verifier), deps.Auth.LogoutAll)
	}

	admin := api.Group("/admin",
		deps.Limiter.Limit(middleware.ClassGeneral),
		middleware.RequireAuth(deps.Verifier),
		middleware.RequireRole(domain.RoleAdmin),
	)
	{
		admin.POST("/unlock", deps.Admin.Unlock)
	}

	return router
}
