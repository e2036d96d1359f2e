package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pulsescore-backend/internal/shared/auth"
	"pulsescore-backend/internal/shared/server/respond"
)

// GuestIDHeader identifies anonymous survey respondents.
const GuestIDHeader = "X-Guest-Id"

const (
	identityKey = "identity"
	// Read by respond.Error when logging, which cannot import this package.
	userIDKey  = "userId"
	isGuestKey = "isGuest"
)

// Identity is the caller resolved by Auth.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	Picture string
	Guest   bool
}

var publicPrefixes = []string{
	"/api/v1/auth/google/",
	"/api/v1/health",
	"/api/v1/metrics",
	"/api/v1/scoring/config",
}

func isPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Auth resolves the caller. Dashboard users send a bearer token; survey
// respondents send X-Guest-Id and become "guest:<id>". A bearer header that
// fails verification is rejected even when a guest id is also present.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		if isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		id, ok := identify(c.Request)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials", nil)
			return
		}
		c.Set(identityKey, id)
		c.Set(userIDKey, id.UserID)
		c.Set(isGuestKey, id.Guest)
		c.Next()
	}
}

func identify(r *http.Request) (Identity, bool) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return Identity{}, false
		}
		claims, err := auth.VerifyJWT(token)
		if err != nil || claims.Subject == "" {
			return Identity{}, false
		}
		return Identity{
			UserID:  claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		}, true
	}

	guest := strings.TrimSpace(r.Header.Get(GuestIDHeader))
	if !safeToken(guest) {
		return Identity{}, false
	}
	return Identity{UserID: "guest:" + guest, Guest: true}, true
}

// RequireUser rejects guest identities. Mount it after Auth on dashboard routes.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := IdentityFromContext(c); id.Guest || id.UserID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the caller stored by Auth, or the zero
// Identity on public routes.
func IdentityFromContext(c *gin.Context) Identity {
	if c == nil {
		return Identity{}
	}
	v, _ := c.Get(identityKey)
	id, _ := v.(Identity)
	return id
}

// IsGuest reports whether the request was authenticated with a guest header.
func IsGuest(c *gin.Context) bool { return IdentityFromContext(c).Guest }

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string { return IdentityFromContext(c).UserID }
