package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pulsescore-backend/internal/shared/telemetry"
)

// ErrorBody is the error object every failed request returns.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse is the envelope around ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with the error envelope and logs it, at error
// level for 5xx and warn otherwise.
func Error(c *gin.Context, status int, code, message string, details any) {
	requestID := telemetry.RequestID(c.Request.Context())

	lvl := zapcore.WarnLevel
	if status >= http.StatusInternalServerError {
		lvl = zapcore.ErrorLevel
	}
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("message", message),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestID),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields = append(fields, zap.String("user_id", userID), zap.Bool("is_guest", c.GetBool("isGuest")))
	}
	telemetry.L().Log(lvl, "http.error", fields...)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}})
}

// BadRequest sends a 400 invalid_request error.
func BadRequest(c *gin.Context, message string, details any) {
	Error(c, http.StatusBadRequest, "invalid_request", message, details)
}

// NotFound sends a 404 not_found error.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "not_found", message, nil)
}

// Internal sends a 500 internal_error.
func Internal(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, "internal_error", message, nil)
}
