package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/samvad-hq/item-relay/internal/logger"
	"github.com/samvad-hq/item-relay/pkg/metrics"
)

// NewRouter builds the gin engine with logging, recovery, metrics and all routes.
func NewRouter(svc Relay, m *metrics.Manager, log logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.NopLogger{}
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(log), requestMetrics(m))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	NewRelayHandler(svc).RegisterRoutes(router)
	return router
}

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// requestID reuses the caller's X-Request-ID or mints one, and echoes it on the response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.Last().Error()
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.ErrorObj("request failed", "request", fields)
		case status >= http.StatusBadRequest:
			log.WarnObj("request rejected", "request", fields)
		default:
			log.InfoObj("request served", "request", fields)
		}
	}
}

func requestMetrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, c.Request.Method, c.Writer.Status(), float64(time.Since(start).Milliseconds()))
	}
}
