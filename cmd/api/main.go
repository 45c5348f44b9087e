package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Prabesh-Pandey/Task-Manager/internal/cache"
	"github.com/Prabesh-Pandey/Task-Manager/internal/config"
	internaldb "github.com/Prabesh-Pandey/Task-Manager/internal/db"
	"github.com/Prabesh-Pandey/Task-Manager/internal/events"
	"github.com/Prabesh-Pandey/Task-Manager/internal/handler"
	"github.com/Prabesh-Pandey/Task-Manager/internal/httpserver"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
	"github.com/Prabesh-Pandey/Task-Manager/internal/service/auth"
	"github.com/Prabesh-Pandey/Task-Manager/internal/service/report"
	"github.com/Prabesh-Pandey/Task-Manager/internal/service/task"
	"github.com/Prabesh-Pandey/Task-Manager/internal/service/user"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/db"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/mq"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/otel"
	redisclient "github.com/Prabesh-Pandey/Task-Manager/pkg/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	log.Info("Starting task-manager...",
		zap.String("env", cfg.Env),
		zap.String("version", version),
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
	)

	shutdownTracing, err := otel.Init(cfg.OTel, version, log)
	if err != nil {
		log.Warn("OpenTelemetry init failed, continuing without tracing", zap.Error(err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.DB.Migrate {
		if err := db.RunMigrations(cfg.DB, internaldb.Migrations, internaldb.MigrationsDir, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	userRepo := repository.NewUserRepository(dbConn, log)
	taskRepo := repository.NewTaskRepository(dbConn, log)

	// Redis is optional; without it dashboards are computed on every request.
	var (
		taskCache task.DashboardCache
		userCache user.CacheInvalidator
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redisclient.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, dashboard cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer rdb.Close()
			dashboards := cache.NewDashboardCache(rdb, cfg.Cache.DashboardTTL, log)
			taskCache = dashboards
			userCache = dashboards
			log.Info("Dashboard cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Cache.DashboardTTL))
		}
	}

	// RabbitMQ is optional; without it the bus drops every event.
	var (
		broker    events.Broker
		mqState   httpserver.ConnectionState
		publisher *mq.Publisher
	)
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("Message broker unavailable, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			broker = publisher
			mqState = publisher
			log.Info("Event publishing enabled", zap.String("exchange", mq.ExchangeName))
		}
	}
	bus := events.NewBus(broker, nil, log)

	authService, err := auth.NewService(userRepo, bus, auth.Config{
		JWTSecret:         cfg.JWT.Secret,
		TokenTTL:          cfg.JWT.TTL,
		AdminInviteTokens: cfg.Auth.AdminInviteTokens,
		DepartmentCodes:   cfg.Auth.DepartmentCodes,
	}, log)
	if err != nil {
		log.Fatal("Failed to init auth service", zap.Error(err))
	}
	taskService := task.NewService(taskRepo, userRepo, taskCache, bus, log)
	userService := user.NewService(userRepo, taskRepo, userCache, bus, log)
	reportService := report.NewService(taskRepo, userRepo, log)

	errs := handler.NewErrorResponder(cfg.Server.ExposeErrors, log)
	handlers := httpserver.Handlers{
		Auth:   handler.NewAuthHandler(authService, errs, log),
		Task:   handler.NewTaskHandler(taskService, errs),
		User:   handler.NewUserHandler(userService, errs),
		Report: handler.NewReportHandler(reportService, errs),
		Upload: handler.NewUploadHandler(cfg.Server.UploadDir, cfg.Server.PublicURL, errs, log),
	}

	router := httpserver.NewRouter(handlers, authService, errs, httpserver.Options{
		ClientURL:     cfg.Server.ClientURL,
		UploadDir:     cfg.Server.UploadDir,
		AuthRateLimit: rate.Limit(cfg.Auth.RateLimit.RequestsPerSecond),
		AuthRateBurst: cfg.Auth.RateLimit.Burst,
		DB:            dbConn,
		MQ:            mqState,

		TrustedProxies: cfg.Server.TrustedProxies,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down task-manager gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("task-manager shutdown complete")
}
