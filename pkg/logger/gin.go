package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is echoed on console responses and forwarded to the API.
const HeaderRequestID = "X-Request-Id"

// Middleware injects a request_id scoped logger into the request context and
// logs one summary line per console request.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderRequestID, rid)

		reqLogger := l.With("request_id", rid)
		ctx := WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(With(ctx, reqLogger))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		if role, ok := c.Get("role"); ok {
			attrs = append(attrs, "role", role)
		}
		if loc := c.Writer.Header().Get("Location"); loc != "" {
			attrs = append(attrs, "redirect", loc)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
			return
		}
		reqLogger.Info("request", attrs...)
	}
}

// FromGin returns the request-scoped logger.
func FromGin(c *gin.Context) *slog.Logger {
	return From(c.Request.Context(), nil)
}
