package surveys

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/shared/auth"
	"pulsescore-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	svc := NewService(NewMemoryRepo(), scoring.DefaultConfig())
	router := gin.New()
	router.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, svc
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}})
	require.NoError(t, err)
	return "Bearer " + token
}

const createBody = `{
  "organizationName": "Acme",
  "title": "Q1 pulse",
  "questions": [
    {"id": "q1", "text": "I trust leadership", "responseType": "numeric-scale", "theme": "trust-in-leadership"},
    {"id": "q2", "text": "Would you stay?", "responseType": "binary", "theme": "engagement-continuity"}
  ]
}`

func TestCreateSurveyRequiresSignedInUser(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/surveys", bytes.NewBufferString(createBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateGetAndSubmit(t *testing.T) {
	router, svc := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/surveys", bytes.NewBufferString(createBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "google:1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created SurveyResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.SurveyID)
	assert.Len(t, created.Questions, 2)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, withGuest(httptest.NewRequest(http.MethodGet, "/api/v1/surveys/"+created.SurveyID, nil)))
	assert.Equal(t, http.StatusOK, resp.Code)

	body := `{"answers":[{"questionId":"q1","value":4},{"questionId":"q2","value":true}]}`
	req = withGuest(httptest.NewRequest(http.MethodPost, "/api/v1/surveys/"+created.SurveyID+"/submissions", bytes.NewBufferString(body)))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	responses, count, err := svc.Responses(req.Context(), created.SurveyID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, scoring.Responses{
		scoring.NumericResponse{QuestionID: "q1", Value: 4},
		scoring.NumericResponse{QuestionID: "q2", Value: 1},
	}, responses)

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/surveys", nil)
	req.Header.Set("Authorization", bearer(t, "google:1"))
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Items []SurveyResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Empty(t, list.Items[0].Questions)
}

func TestSubmitErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"answers":[{"questionId":"q1","value":4}]}`
	req := withGuest(httptest.NewRequest(http.MethodPost, "/api/v1/surveys/missing/submissions", bytes.NewBufferString(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	req = withGuest(httptest.NewRequest(http.MethodPost, "/api/v1/surveys/missing/submissions", bytes.NewBufferString(`{"answers":[{"questionId":"q1","value":{}}]}`)))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func withGuest(req *http.Request) *http.Request {
	req.Header.Set("X-Guest-Id", "guest-1")
	return req
}
