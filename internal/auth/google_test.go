package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	sharedauth "pulsescore-backend/internal/shared/auth"
	"pulsescore-backend/internal/users"
)

func newGoogleRouter(svc *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	svc.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestStartRequiresConfiguration(t *testing.T) {
	router := newGoogleRouter(NewGoogleService("", "", "", "", nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

// startLogin runs the start endpoint and returns the state parameter and the
// nonce cookie it set.
func startLogin(t *testing.T, router *gin.Engine) (string, *http.Cookie) {
	t.Helper()
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	require.Equal(t, http.StatusFound, resp.Code)

	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == nonceCookie {
			return state, cookie
		}
	}
	t.Fatalf("start did not set %s", nonceCookie)
	return "", nil
}

func callback(router *gin.Engine, query string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?"+query, nil)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestStartRedirectsWithSignedState(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")
	router := newGoogleRouter(NewGoogleService("id", "secret", "https://api.example/cb", "http://ui.local", nil))

	state, cookie := startLogin(t, router)
	nonce, err := sharedauth.VerifyState(state)
	require.NoError(t, err)
	assert.Equal(t, nonce, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/api/v1/auth/google", cookie.Path)
	assert.Equal(t, 300, cookie.MaxAge)
}

func TestCallbackRecordsLoginAndIssuesToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer at" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"42","email":"admin@example.com","verified_email":true,"name":"Admin"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(provider.Close)

	userSvc := users.NewService(users.NewMemoryRepo())
	svc := NewGoogleService("id", "secret", "http://api.local/cb", "http://ui.local/login?next=%2F", userSvc)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: provider.URL + "/auth", TokenURL: provider.URL + "/token"}
	svc.userInfoURL = provider.URL + "/userinfo"

	router := newGoogleRouter(svc)
	state, cookie := startLogin(t, router)
	resp := callback(router, url.Values{"state": {state}, "code": {"c1"}}.Encode(), cookie)
	require.Equal(t, http.StatusFound, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Header().Get("Set-Cookie"), nonceCookie+"=;")

	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Query().Get("next"))
	claims, err := sharedauth.VerifyJWT(loc.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "google:42", claims.Subject)
	assert.Equal(t, "admin@example.com", claims.Email)

	stored, err := userSvc.GetByID(t.Context(), "google:42")
	require.NoError(t, err)
	assert.Equal(t, "Admin", stored.Name)
}

func TestCallbackRejectsBadState(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")
	router := newGoogleRouter(NewGoogleService("id", "secret", "http://api.local/cb", "http://ui.local", nil))
	state, cookie := startLogin(t, router)
	_, otherCookie := startLogin(t, router)
	session, err := sharedauth.SignJWT(sharedauth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: cookie.Value}})
	require.NoError(t, err)

	cases := []struct {
		name   string
		query  string
		cookie *http.Cookie
	}{
		{name: "missing params", query: "", cookie: cookie},
		{name: "unsigned state", query: "state=nope&code=c", cookie: cookie},
		{name: "no cookie", query: url.Values{"state": {state}, "code": {"c"}}.Encode()},
		{name: "other browser", query: url.Values{"state": {state}, "code": {"c"}}.Encode(), cookie: otherCookie},
		{name: "session token as state", query: url.Values{"state": {session}, "code": {"c"}}.Encode(), cookie: cookie},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, callback(router, tc.query, tc.cookie).Code)
		})
	}
}

func TestUserInfoVerified(t *testing.T) {
	yes, no := true, false
	assert.True(t, googleUserInfo{}.verified())
	assert.True(t, googleUserInfo{VerifiedEmail: &yes}.verified())
	assert.False(t, googleUserInfo{VerifiedEmail: &no}.verified())
	assert.False(t, googleUserInfo{VerifiedEmail: &yes, EmailVerified: &no}.verified())
}

func TestAppendToken(t *testing.T) {
	_, err := appendToken("", "t")
	assert.Error(t, err)

	got, err := appendToken("http://ui.local/cb?x=1", "abc")
	require.NoError(t, err)
	assert.Equal(t, "http://ui.local/cb?token=abc&x=1", got)
}
