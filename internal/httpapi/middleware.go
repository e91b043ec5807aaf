package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/observability"
	"github.com/joelkehle/intelbrief/internal/research"
)

const (
	headerRequestID    = "X-Request-ID"
	maxRequestIDLength = 64
	ctxLoggerKey       = "logger"
)

// requestIDMiddleware keeps a caller-supplied X-Request-ID or assigns one,
// and stores a request-scoped logger on the context.
func requestIDMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, id)
		c.Set(ctxLoggerKey, log.With(zap.String("request_id", id)))
		c.Next()
	}
}

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if log, ok := v.(*zap.Logger); ok {
			return log
		}
	}
	return zap.NewNop()
}

// accessLogMiddleware logs one line per request and counts it by route.
func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		log := loggerFrom(c)
		if len(c.Errors) > 0 {
			log.Error("http request failed", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
			return
		}
		if strings.HasPrefix(route, "/healthz") || route == "/metrics" {
			log.Debug("http request", fields...)
			return
		}
		log.Info("http request", fields...)
	}
}

func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				loggerFrom(c).Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"ok":    false,
					"error": errorBody{Code: research.CodeInternal, Message: "internal server error"},
				})
			}
		}()
		c.Next()
	}
}
