package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campuspass-api/api/swagger"
	"github.com/noah-isme/campuspass-api/internal/handler"
	"github.com/noah-isme/campuspass-api/internal/repository"
	"github.com/noah-isme/campuspass-api/internal/service"
	"github.com/noah-isme/campuspass-api/internal/storeconn"
	"github.com/noah-isme/campuspass-api/pkg/config"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
	"github.com/noah-isme/campuspass-api/pkg/export"
	"github.com/noah-isme/campuspass-api/pkg/logger"
)

// @title CampusPass API
// @version 1.0.0
// @description Student portal: sign-in, announcements and the shared calendar, with live updates over Server-Sent Events.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey StudentNumber
// @in header
// @name X-Student-Number

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	client, err := storeconn.Open(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open document store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	store := storeconn.Instrument(client, metrics, cfg.Store.OperationLimit)
	defer func() {
		if err := store.Close(); err != nil {
			logr.Warn("closing document store failed", zap.Error(err))
		}
	}()

	h, users := buildHandlers(cfg, store, metrics, logr)

	if cfg.Store.SeedDefaults {
		seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if _, err := users.SeedIfEmpty(seedCtx, service.DefaultUsers()); err != nil {
			logr.Error("seeding default users failed", zap.Error(err))
		}
		cancel()
	}

	router := newRouter(cfg, logr, metrics, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// streams end when the process is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store_driver", store.Driver()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func buildHandlers(cfg *config.Config, store docstore.Client, metrics *service.MetricsService, logr *zap.Logger) (handlers, *service.UserService) {
	validate := service.NewValidator()

	announcementRepo := repository.NewAnnouncementRepository(store, logr.Named("announcements"))
	calendarRepo := repository.NewCalendarRepository(store, logr.Named("calendar"))
	userRepo := repository.NewUserRepository(store, logr.Named("users"))

	announcements := service.NewAnnouncementService(announcementRepo, validate, logr)
	calendar := service.NewCalendarService(calendarRepo, validate, cfg.Campus.Location, logr)
	users := service.NewUserService(userRepo, logr)
	auth := service.NewAuthService(users, validate, logr)
	exports := service.NewExportService(announcements, calendar, logr, export.NewCSVExporter(), export.NewPDFExporter())

	ready := func(ctx context.Context) error {
		_, err := store.Get(ctx, docstore.MustPath(repository.UsersPath).Child("_ready"))
		return err
	}
	var metricsHandler http.Handler
	if metrics != nil {
		metricsHandler = metrics.Handler()
	}

	return handlers{
		auth:          handler.NewAuthHandler(auth),
		announcements: handler.NewAnnouncementHandler(announcements, exports),
		calendar:      handler.NewCalendarHandler(calendar, exports),
		metrics:       handler.NewMetricsHandler(metricsHandler, store.Driver(), ready),
	}, users
}
