package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campuspass-api/internal/middleware"
	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/pkg/config"
	"github.com/noah-isme/campuspass-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campuspass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campuspass-api/pkg/middleware/requestid"
)

type handlers struct {
	auth          *handler.AuthHandler
	announcements *handler.AnnouncementHandler
	calendar      *handler.CalendarHandler
	metrics       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, observer internalmiddleware.HTTPObserver, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(observer))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.auth.Login)
	auth.POST("/forgot-password", h.auth.ForgotPassword)

	signedIn := api.Group("")
	signedIn.Use(internalmiddleware.Identity())

	me := signedIn.Group("/me")
	me.GET("", h.auth.Me)
	me.PUT("/password", h.auth.ChangePassword)
	me.PUT("/display-name", h.auth.ChangeDisplayName)

	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)

	announcements := signedIn.Group("/announcements")
	announcements.GET("", h.announcements.List)
	announcements.GET("/stream", h.announcements.Stream)
	announcements.GET("/export", h.announcements.Export)
	announcements.POST("", adminOnly, h.announcements.Create)
	announcements.DELETE("/:id", adminOnly, h.announcements.Delete)

	calendar := signedIn.Group("/calendar-items")
	calendar.GET("", h.calendar.List)
	calendar.GET("/days", h.calendar.Days)
	calendar.GET("/stream", h.calendar.Stream)
	calendar.GET("/export", h.calendar.Export)
	calendar.POST("", adminOnly, h.calendar.Create)
	calendar.DELETE("/:id", adminOnly, h.calendar.Delete)

	return r
}
