package httpserver

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/handler"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/rbac"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/metrics"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/trace"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/util"
)

// Authenticator resolves a bearer token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Actor, *model.User, error)
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithTrace(c.Request.Context(), log).Error("Panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			}
		}()
		c.Next()
	}
}

// TraceID propagates X-Trace-ID (or X-Request-ID) into the request context and echoes it back.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeaders(c.GetHeader(trace.HeaderName), c.GetHeader("X-Request-ID"))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.WithTrace(c.Request.Context(), log).Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// Metrics records request latency by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

const (
	visitorIdleTTL = 3 * time.Minute
	sweepInterval  = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorLimiter keeps one token bucket per client IP and forgets IPs idle
// for longer than idle.
type visitorLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newVisitorLimiter(r rate.Limit, b int, idle time.Duration) *visitorLimiter {
	return &visitorLimiter{
		limit:    r,
		burst:    b,
		idle:     idle,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (l *visitorLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops visitors idle past l.idle. Caller holds mu.
func (l *visitorLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

func (l *visitorLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RateLimiter throttles per client IP. The IP comes from c.ClientIP, so
// forwarded headers count only from the engine's trusted proxies.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	return rateLimit(newVisitorLimiter(r, b, visitorIdleTTL))
}

func rateLimit(l *visitorLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}

// AuthMiddleware requires a valid bearer token and stores the actor for the handlers.
func AuthMiddleware(authn Authenticator, errs *handler.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _, err := authn.Authenticate(c.Request.Context(), util.ExtractToken(c.Request))
		if err != nil {
			errs.Respond(c, err)
			return
		}

		handler.SetActor(c, actor)
		c.Next()
	}
}

// RequirePermission rejects actors whose role lacks permission.
func RequirePermission(permission string, errs *handler.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := handler.ActorFrom(c)
		if !ok {
			errs.Respond(c, apperr.Unauthenticated("Not authorized, no token"))
			return
		}

		if err := rbac.CheckPermission(actor, permission); err != nil {
			errs.Respond(c, err)
			return
		}

		c.Next()
	}
}
