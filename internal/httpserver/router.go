package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"taskbot/internal/api"
	"taskbot/pkg/metrics"
	"taskbot/pkg/trace"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a ping function, e.g. a Redis client's, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ConnChecker is implemented by *mq.Publisher.
type ConnChecker interface {
	IsConnected() bool
}

// Readiness lists the optional backends /readyz checks. Nil fields are
// not configured and are skipped.
type Readiness struct {
	DB    Pinger
	Redis Pinger
	MQ    ConnChecker
}

// Handlers are the operator endpoints. Digest is nil when no digest chat is
// configured.
type Handlers struct {
	Message *api.MessageHandler
	Digest  *api.DigestHandler
}

func NewRouter(h Handlers, ready Readiness, jwtSecret string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(traceMiddleware())

	// 请求日志 + 延迟指标
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), latency)
		logger.Info("HTTP Request",
			zap.String("trace_id", trace.FromContext(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if ready.DB != nil {
			if err := ready.DB.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if ready.Redis != nil {
			if err := ready.Redis.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis_not_ready", "error": err.Error()})
				return
			}
		}
		if ready.MQ != nil && !ready.MQ.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 没有配置 JWT secret 时不开放运维接口
	if jwtSecret == "" {
		logger.Warn("JWT secret not configured, operator endpoints disabled")
		return r
	}

	ops := r.Group("/")
	ops.Use(AuthMiddleware(jwtSecret))
	{
		if h.Message != nil {
			ops.POST("/simulate/message", h.Message.SimulateMessage)
		}
		if h.Digest != nil {
			ops.POST("/jobs/daily-digest", h.Digest.RunNow)
		}
	}

	return r
}

func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(trace.HeaderName()); id != "" {
			ctx = trace.WithContext(ctx, id)
		}
		ctx, id := trace.Ensure(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(trace.HeaderName(), id)
		c.Next()
	}
}
