package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Prabesh-Pandey/Task-Manager/internal/handler"
	"github.com/Prabesh-Pandey/Task-Manager/internal/rbac"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/otel"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Task   *handler.TaskHandler
	User   *handler.UserHandler
	Report *handler.ReportHandler
	Upload *handler.UploadHandler
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionState is satisfied by *mq.Publisher.
type ConnectionState interface {
	IsConnected() bool
}

type Options struct {
	ClientURL string
	UploadDir string

	// requests per second and burst for register/login, per client IP
	AuthRateLimit rate.Limit
	AuthRateBurst int

	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string

	// DB and MQ back /readyz; either may be nil.
	DB Pinger
	MQ ConnectionState
}

func NewRouter(h Handlers, authn Authenticator, errs *handler.ErrorResponder, opts Options, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("Invalid trusted proxies, trusting none", zap.Strings("proxies", opts.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		Recovery(logger),
		TraceID(),
		otel.GinMiddleware(),
		RequestLogger(logger),
		Metrics(),
		cors.New(corsConfig(opts.ClientURL)),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", readiness(opts.DB, opts.MQ))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	api := r.Group("/api")
	requireAuth := AuthMiddleware(authn, errs)

	limit, burst := opts.AuthRateLimit, opts.AuthRateBurst
	if limit <= 0 {
		limit = rate.Limit(1)
	}
	if burst <= 0 {
		burst = 10
	}
	limiter := RateLimiter(limit, burst)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limiter, h.Auth.Register)
		authGroup.POST("/login", limiter, h.Auth.Login)
		authGroup.POST("/upload-image", h.Upload.UploadImage)
		authGroup.GET("/profile", requireAuth, h.Auth.GetProfile)
		authGroup.PUT("/profile", requireAuth, h.Auth.UpdateProfile)
	}

	tasks := api.Group("/tasks", requireAuth)
	{
		tasks.GET("/dashboard-data", RequirePermission(rbac.PermissionDepartmentDashboard, errs), h.Task.GetDashboardData)
		tasks.GET("/user-dashboard-data", h.Task.GetUserDashboardData)
		tasks.GET("", h.Task.GetTasks)
		tasks.GET("/:id", h.Task.GetTask)
		tasks.POST("", RequirePermission(rbac.PermissionCreateTask, errs), h.Task.CreateTask)
		tasks.PUT("/:id", h.Task.UpdateTask)
		tasks.DELETE("/:id", RequirePermission(rbac.PermissionDeleteTask, errs), h.Task.DeleteTask)
		tasks.PUT("/:id/status", h.Task.UpdateTaskStatus)
		tasks.PUT("/:id/todo", h.Task.UpdateTaskChecklist)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("", RequirePermission(rbac.PermissionListUsers, errs), h.User.GetUsers)
		users.GET("/:id", h.User.GetUser)
		users.DELETE("/:id", RequirePermission(rbac.PermissionDeleteUser, errs), h.User.DeleteUser)
	}

	reports := api.Group("/reports", requireAuth, RequirePermission(rbac.PermissionExportReport, errs))
	{
		reports.GET("/export/tasks", h.Report.ExportTasks)
		reports.GET("/export/users", h.Report.ExportUsers)
	}

	return r
}

func corsConfig(clientURL string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "X-Trace-ID"},
		ExposeHeaders: []string{"X-Trace-ID", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if clientURL == "" || clientURL == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{clientURL}
	}
	return cfg
}

func readiness(db Pinger, mq ConnectionState) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready"})
				return
			}
		}

		if mq != nil && !mq.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
