package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"solarsmart/api/internal/analytics"
	"solarsmart/api/internal/config"
	"solarsmart/api/internal/metrics"
	"solarsmart/api/internal/middleware"
	"solarsmart/api/internal/models"
	"solarsmart/api/internal/service"
)

// ReportQueue schedules login exports. Nil when the report pipeline is disabled.
type ReportQueue interface {
	EnqueueLoginExport(ctx context.Context, day time.Time) (string, error)
}

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Analytics *analytics.Engine
	Tokens    middleware.TokenVerifier
	Reports   ReportQueue
	Metrics   *metrics.Metrics
	Health    map[string]HealthCheck
	Now       func() time.Time
}

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	auth      *service.AuthService
	users     *service.UserService
	analytics *analytics.Engine
	tokens    middleware.TokenVerifier
	reports   ReportQueue
	metrics   *metrics.Metrics
	health    map[string]HealthCheck
	now       func() time.Time
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return HandlerSet{
		log:       log,
		cfg:       cfg,
		auth:      deps.Auth,
		users:     deps.Users,
		analytics: deps.Analytics,
		tokens:    deps.Tokens,
		reports:   deps.Reports,
		metrics:   deps.Metrics,
		health:    deps.Health,
		now:       now,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.POST("/register", h.RegisterUser)
	router.POST("/login", h.Login)

	authed := router.Group("")
	authed.Use(middleware.Auth(h.tokens))
	authed.GET("/me", h.Me)
	authed.GET("/users/:id/logs", h.UserLogs)

	admin := router.Group("")
	admin.Use(
		middleware.Auth(h.tokens),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	admin.GET("/users", h.ListUsers)
	admin.GET("/stats/weekly-logins", h.WeeklyLogins)
	admin.GET("/stats/monthly-logins", h.MonthlyLogins)
	admin.POST("/admin/reports/logins", h.EnqueueLoginReport)
}
