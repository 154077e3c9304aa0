package agent

import (
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/relev-ai/relevai-go/config"
	"github.com/relev-ai/relevai-go/observability"
)

const (
	// requestIDHeader is the header carrying the request ID.
	requestIDHeader = "X-Request-ID"

	// requestIDKey is the gin context key for the request ID.
	requestIDKey = "requestID"

	// apiKeyNameKey is the gin context key for the authenticated API
	// key's name.
	apiKeyNameKey = "apiKeyName"
)

// requestID returns middleware that propagates or generates a request ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// getRequestID returns the request ID from the gin context.
func getRequestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// isProbePath reports whether the path is polled by orchestration and
// should stay out of the request log.
func isProbePath(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

// requestLogging returns middleware that logs completed requests, leveled
// by status code.
func requestLogging(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isProbePath(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []observability.Field{
			observability.String("requestID", getRequestID(c)),
			observability.String("method", c.Request.Method),
			observability.String("path", path),
			observability.Int("status", status),
			observability.Duration("latency", time.Since(start)),
			observability.String("clientIP", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, observability.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// recovery returns middleware that converts panics into 500 responses.
func recovery(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					observability.Any("error", err),
					observability.String("method", c.Request.Method),
					observability.String("path", c.Request.URL.Path),
					observability.String("requestID", getRequestID(c)),
					observability.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// apiKeyAuth returns middleware that checks the configured API-key header
// against the accepted entries. Bcrypt entries compare through bcrypt;
// plain entries compare in constant time.
func apiKeyAuth(cfg config.APIAuthConfig, logger observability.Logger) gin.HandlerFunc {
	header := cfg.Header
	if header == "" {
		header = config.DefaultAPIKeyHeader
	}

	return func(c *gin.Context) {
		provided := c.GetHeader(header)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		for _, entry := range cfg.Keys {
			if matchAPIKey(entry, provided) {
				c.Set(apiKeyNameKey, entry.Name)
				c.Next()
				return
			}
		}

		logger.Warn("rejected API key",
			observability.String("clientIP", c.ClientIP()),
			observability.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid API key",
		})
	}
}

// matchAPIKey compares a provided key against one accepted entry.
func matchAPIKey(entry config.APIKeyEntry, provided string) bool {
	if entry.Hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(entry.Hash), []byte(provided)) == nil
	}
	if entry.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(entry.Value), []byte(provided)) == 1
}

// tracing returns middleware that opens a server span per request,
// continuing any trace context carried by the caller.
func tracing(tracer *observability.Tracer) gin.HandlerFunc {
	propagators := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isProbePath(path) {
			c.Next()
			return
		}

		ctx := propagators.Extract(c.Request.Context(),
			propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracer.StartSpan(ctx, c.Request.Method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.target", path),
			attribute.String("net.peer.ip", c.ClientIP()),
		)
		if id := getRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}
