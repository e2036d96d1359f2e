package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsescore-backend/internal/shared/auth"
)

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	router := gin.New()
	router.Use(Auth())
	whoami := func(c *gin.Context) {
		id := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": id.UserID, "email": id.Email, "guest": id.Guest})
	}
	router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/surveys", whoami)
	router.GET("/api/v1/admin", RequireUser(), whoami)
	return router
}

func signed(t *testing.T, subject, email string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Email:            email,
	})
	require.NoError(t, err)
	return token
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router := authRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/surveys", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestAuthPublicPathsNeedNoIdentity(t *testing.T) {
	router := authRouter(t)
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/api/v1/surveys", nil).Code)
}

func TestAuthResolvesBearerIdentity(t *testing.T) {
	router := authRouter(t)
	token := signed(t, "google:42", "ada@example.com")

	for _, header := range []string{"Bearer " + token, "bearer  " + token} {
		resp := get(router, "/api/v1/surveys", map[string]string{"Authorization": header})
		require.Equal(t, http.StatusOK, resp.Code, header)
		assert.JSONEq(t, `{"user":"google:42","email":"ada@example.com","guest":false}`, resp.Body.String())
	}
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	router := authRouter(t)
	cases := map[string]map[string]string{
		"basic scheme":        {"Authorization": "Basic abc"},
		"empty bearer":        {"Authorization": "Bearer "},
		"forged token":        {"Authorization": "Bearer not.a.jwt"},
		"bad token and guest": {"Authorization": "Bearer nope", "X-Guest-Id": "g1"},
		"guest with spaces":   {"X-Guest-Id": "g 1"},
		"guest too long":      {"X-Guest-Id": strings.Repeat("g", maxTokenLen+1)},
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			resp := get(router, "/api/v1/surveys", headers)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.Contains(t, resp.Body.String(), `"unauthorized"`)
		})
	}
}

func TestAuthPrefixesGuestIDs(t *testing.T) {
	resp := get(authRouter(t), "/api/v1/surveys", map[string]string{"X-Guest-Id": " guest-1 "})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"user":"guest:guest-1","email":"","guest":true}`, resp.Body.String())
}

func TestRequireUserRejectsGuests(t *testing.T) {
	router := authRouter(t)

	resp := get(router, "/api/v1/admin", map[string]string{"X-Guest-Id": "g1"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = get(router, "/api/v1/admin", map[string]string{"Authorization": "Bearer " + signed(t, "google:42", "")})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"user":"google:42"`)
}

func TestIdentityFromContextOnNil(t *testing.T) {
	assert.Equal(t, Identity{}, IdentityFromContext(nil))
	assert.False(t, IsGuest(nil))
	assert.Empty(t, UserIDFromContext(nil))
}
