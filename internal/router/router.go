// Package router assembles the HTTP surface.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Config controls the router surface.
type Config struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Timetable    *handler.TimetableHandler
	Runs         *handler.RunHandler
	Slots        *handler.ScheduleSlotHandler
	Preferences  *handler.TeacherPreferenceHandler
	Metrics      *handler.MetricsHandler
	Auth         TokenValidator
	MetricsStore *service.MetricsService
}

// New builds the gin engine.
func New(cfg Config, h Handlers, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(h.MetricsStore))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	admins := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	api := r.Group(prefix)
	api.Use(internalmiddleware.JWT(h.Auth))

	api.GET("/schedule-slots", h.Slots.List)
	api.POST("/schedule-slots/refresh", admins, h.Slots.Refresh)

	timetables := api.Group("/timetables", admins)
	timetables.POST("/solve", h.Timetable.Solve)
	timetables.POST("/generate", h.Timetable.Generate)
	timetables.POST("/runs", h.Runs.Submit)
	timetables.GET("/runs/:id", h.Runs.Get)

	teachers := api.Group("/teachers/:id")
	teachers.GET("/preferences", internalmiddleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), internalmiddleware.SelfAccess), h.Preferences.Get)
	teachers.PUT("/preferences", admins, h.Preferences.Upsert)

	return r
}
