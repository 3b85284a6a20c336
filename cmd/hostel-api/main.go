package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hostel-api/api/swagger"
	"github.com/noah-isme/hostel-api/internal/handler"
	internalmiddleware "github.com/noah-isme/hostel-api/internal/middleware"
	"github.com/noah-isme/hostel-api/internal/repository"
	"github.com/noah-isme/hostel-api/internal/service"
	"github.com/noah-isme/hostel-api/pkg/cache"
	"github.com/noah-isme/hostel-api/pkg/config"
	"github.com/noah-isme/hostel-api/pkg/database"
	"github.com/noah-isme/hostel-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hostel-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hostel-api/pkg/middleware/requestid"
)

// @title Hostel Management API
// @version 1.0.0
// @description Rooms, allocations, transfers and the fee ledger for hostel administrators and residents.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	rooms := repository.NewRoomRepository(db)
	roomTypes := repository.NewRoomTypeRepository(db)
	students := repository.NewStudentRepository(db)
	transfers := repository.NewRoomTransferRepository(db)
	fees := repository.NewFeeRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	allocationSvc := service.NewAllocationService(db, rooms, students, users, cacheSvc, metrics, validate, logr)
	transferSvc := service.NewRoomTransferService(db, transfers, rooms, students, users, cacheSvc, metrics, validate, logr)
	roomSvc := service.NewRoomService(db, rooms, roomTypes, transfers, users, cacheSvc, metrics, validate, logr)
	roomTypeSvc := service.NewRoomTypeService(db, roomTypes, rooms, validate, logr)
	studentSvc := service.NewStudentService(db, students, validate, logr)
	calculator := service.NewFeeCalculator(students, rooms)
	feeSvc := service.NewFeeService(fees, students, calculator, users, cacheSvc, validate, logr, service.FeeServiceConfig{
		DefaultDueDays: cfg.Fees.DefaultDueDays,
	})

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Rooms:     handler.NewRoomHandler(roomSvc, roomTypeSvc, allocationSvc),
		Students:  handler.NewStudentHandler(studentSvc),
		Fees:      handler.NewFeeHandler(feeSvc, calculator),
		Transfers: handler.NewRoomTransferHandler(transferSvc),
	}
	if cfg.Dashboard.Enabled {
		handlers.Dashboard = handler.NewDashboardHandler(service.NewDashboardService(service.DashboardServiceParams{
			Ledger:    dashboardRepo,
			Transfers: transfers,
			Fees:      fees,
			Cache:     cacheSvc,
			Metrics:   metrics,
			Logger:    logr,
			Config:    service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
		}))
	}
	if cfg.Reports.Enabled {
		handlers.Reports = handler.NewReportHandler(service.NewReportService(fees, service.ReportServiceConfig{MaxRows: cfg.Reports.MaxRows}, validate, logr, nil, nil))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	ops := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, handler.RouteOptions{
		Authenticate: internalmiddleware.JWT(authSvc),
		Audit:        users,
		Logger:       logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
