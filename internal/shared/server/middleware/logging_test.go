package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsescore-backend/internal/shared/telemetry"
)

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines[0], "expected log output")
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &payload))
	return payload
}

func loggingRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Auth(), Logging())
	router.GET("/api/v1/results/:id", func(c *gin.Context) {
		c.Set(SurveyIDKey, "survey-1")
		c.Set(ResultIDKey, c.Param("id"))
		c.Set(TierKey, "at-risk")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/api/v1/broken", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})
	return router
}

func TestLoggingIncludesRequestAndDomainFields(t *testing.T) {
	var buf bytes.Buffer
	defer telemetry.SetOutput(&buf)()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/results/result-1", nil)
	req.Header.Set("X-Guest-Id", "guest1")
	req.Header.Set(RequestIDHeader, "req-9")
	loggingRouter().ServeHTTP(httptest.NewRecorder(), req)

	got := lastLogLine(t, &buf)
	assert.Equal(t, "request.complete", got["msg"])
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "req-9", got["request_id"])
	assert.Equal(t, "guest:guest1", got["user_id"])
	assert.Equal(t, true, got["is_guest"])
	assert.Equal(t, "/api/v1/results/:id", got["route"])
	assert.Equal(t, "survey-1", got["survey_id"])
	assert.Equal(t, "result-1", got["result_id"])
	assert.Equal(t, "at-risk", got["tier"])
	assert.EqualValues(t, http.StatusOK, got["status"])
	assert.Contains(t, got, "duration_ms")
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	defer telemetry.SetOutput(&buf)()
	router := loggingRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/results/r1", nil))
	got := lastLogLine(t, &buf)
	assert.Equal(t, "warn", got["level"])
	assert.EqualValues(t, http.StatusUnauthorized, got["status"])
	assert.NotContains(t, got, "survey_id")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/broken", nil)
	req.Header.Set("X-Guest-Id", "g1")
	router.ServeHTTP(httptest.NewRecorder(), req)
	got = lastLogLine(t, &buf)
	assert.Equal(t, "error", got["level"])
	assert.EqualValues(t, http.StatusBadGateway, got["status"])
}
