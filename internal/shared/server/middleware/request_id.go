package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pulsescore-backend/internal/shared/telemetry"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

const (
	requestIDKey    = "requestId"
	maxTokenLen = 64
)

// RequestID tags every request with an id. An inbound id from a proxy is kept
// when it is short and printable; otherwise a fresh uuid is issued. The id is
// also placed on the request context so result and certificate services can
// log it and hand it to queued jobs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !safeToken(id) {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Request = c.Request.WithContext(telemetry.WithRequestID(c.Request.Context(), id))
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFromContext fetches the request ID stored by RequestID middleware.
func RequestIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(requestIDKey)
}

// safeToken reports whether s is a short header value made of alphanumerics
// and "-_.:" only.
func safeToken(s string) bool {
	if s == "" || len(s) > maxTokenLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
