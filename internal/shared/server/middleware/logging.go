package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pulsescore-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can correlate domain ids.
const (
	SurveyIDKey = "surveyId"
	ResultIDKey = "resultId"
	TierKey     = "tier"
)

// Logging writes one request.complete line per request. 5xx responses log
// at error level and 4xx at warn. Domain ids appear only when a handler set
// them.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		caller := IdentityFromContext(c)
		fields := []zap.Field{
			zap.String("request_id", RequestIDFromContext(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			zap.String("user_id", caller.UserID),
			zap.Bool("is_guest", caller.Guest),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		for _, key := range []struct{ ctx, field string }{
			{SurveyIDKey, "survey_id"},
			{ResultIDKey, "result_id"},
			{TierKey, "tier"},
		} {
			if v := c.GetString(key.ctx); v != "" {
				fields = append(fields, zap.String(key.field, v))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		lvl := zapcore.InfoLevel
		switch {
		case status >= 500:
			lvl = zapcore.ErrorLevel
		case status >= 400:
			lvl = zapcore.WarnLevel
		}
		telemetry.L().Log(lvl, "request.complete", fields...)
	}
}
