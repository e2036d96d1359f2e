package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulsescore-backend/internal/shared/server/respond"
	"pulsescore-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 error envelope. The stack and the
// survey/result being worked on go to the log, never to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			telemetry.L().Error("http.panic",
				zap.String("request_id", RequestIDFromContext(c)),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("survey_id", c.GetString(SurveyIDKey)),
				zap.String("result_id", c.GetString(ResultIDKey)),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Internal(c, "unexpected server error")
		}()
		c.Next()
	}
}
