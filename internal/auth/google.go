package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "pulsescore-backend/internal/shared/auth"
	"pulsescore-backend/internal/shared/server/respond"
	"pulsescore-backend/internal/shared/telemetry"
	"pulsescore-backend/internal/users"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// LoginRecorder persists dashboard accounts on successful login.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, user users.User) (users.User, error)
}

// GoogleService handles the Google OAuth flow for dashboard admins.
type GoogleService struct {
	oauthConfig *oauth2.Config
	userInfoURL string
	uiRedirect  string
	stateTTL    time.Duration
	users       LoginRecorder
}

// nonceCookie binds the OAuth state to the browser that started the login.
const nonceCookie = "pulse_oauth_nonce"

// NewGoogleService builds a GoogleService. recorder may be nil.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, recorder LoginRecorder) *GoogleService {
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		uiRedirect:  uiRedirect,
		stateTTL:    5 * time.Minute,
		users:       recorder,
	}
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != "" && s.oauthConfig.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusServiceUnavailable, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	nonce := uuid.NewString()
	state, err := sharedauth.SignState(nonce, s.stateTTL)
	if err != nil {
		telemetry.Error("auth.google.state_failed", map[string]any{"error": err.Error()})
		respond.Internal(c, "failed to start login")
		return
	}
	s.setNonce(c, nonce, int(s.stateTTL.Seconds()))
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// setNonce writes the nonce cookie, or clears it when maxAge is negative.
func (s *GoogleService) setNonce(c *gin.Context, nonce string, maxAge int) {
	secure := strings.HasPrefix(s.oauthConfig.RedirectURL, "https://")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(nonceCookie, nonce, maxAge, "/api/v1/auth/google", "", secure, true)
}

// checkState accepts a state token signed by start whose nonce matches the
// caller's cookie. The cookie is cleared either way so a state is used once
// per browser.
func (s *GoogleService) checkState(c *gin.Context, state string) bool {
	cookie, _ := c.Cookie(nonceCookie)
	s.setNonce(c, "", -1)
	nonce, err := sharedauth.VerifyState(state)
	if err != nil || cookie == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(nonce), []byte(cookie)) == 1
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.BadRequest(c, "missing state or code", nil)
		return
	}
	if !s.checkState(c, state) {
		respond.BadRequest(c, "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		telemetry.Warn("auth.google.exchange_failed", map[string]any{"error": err.Error()})
		respond.BadRequest(c, "failed to exchange code", nil)
		return
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil || info.Sub == "" || info.Email == "" {
		if err != nil {
			telemetry.Warn("auth.google.userinfo_failed", map[string]any{"error": err.Error()})
		}
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}
	if !info.verified() {
		respond.Error(c, http.StatusForbidden, "email_unverified", "Google account email is not verified", nil)
		return
	}

	subject := "google:" + info.Sub
	if s.users != nil {
		if _, err := s.users.RecordLogin(ctx, users.User{
			ID:         subject,
			Email:      info.Email,
			Name:       info.Name,
			PictureURL: info.Picture,
		}); err != nil {
			telemetry.Error("auth.google.record_login_failed", map[string]any{"user_id": subject, "error": err.Error()})
			respond.Internal(c, "failed to record login")
			return
		}
	}

	signed, err := sharedauth.SignJWT(sharedauth.Claims{
		Email:            info.Email,
		Name:             info.Name,
		Picture:          info.Picture,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	})
	if err != nil {
		respond.Internal(c, "failed to issue token")
		return
	}

	target, err := appendToken(s.uiRedirect, signed)
	if err != nil {
		respond.Internal(c, "failed to redirect")
		return
	}
	telemetry.Info("auth.google.login", map[string]any{"user_id": subject})
	c.Redirect(http.StatusFound, target)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail *bool  `json:"verified_email"`
	EmailVerified *bool  `json:"email_verified"`
}

// verified is false only when Google says the address is unverified.
func (i googleUserInfo) verified() bool {
	for _, flag := range []*bool{i.VerifiedEmail, i.EmailVerified} {
		if flag != nil && !*flag {
			return false
		}
	}
	return true
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	// v2 userinfo returns "id"; OpenID returns "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
