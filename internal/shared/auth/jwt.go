package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the dashboard identity contained in a session token.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

const (
	issuer     = "pulsescore"
	sessionTTL = 24 * time.Hour
	leeway     = 30 * time.Second

	// Session and OAuth state tokens share a key; the audience keeps one
	// from being accepted as the other.
	sessionAudience = "dashboard"
	stateAudience   = "oauth-state"

	devSecret     = "dev-secret"
	minProdSecret = 32
)

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// SignJWT issues a session token for claims.Subject, filling in issuer,
// audience, issue time and a 24h expiry when unset.
func SignJWT(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("sub is required")
	}
	now := time.Now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(sessionTTL))
	}
	if claims.Issuer == "" {
		claims.Issuer = issuer
	}
	claims.Audience = jwt.ClaimStrings{sessionAudience}
	return sign(claims)
}

// VerifyJWT checks a session token and returns its claims.
func VerifyJWT(raw string) (Claims, error) {
	var claims Claims
	if err := parse(raw, sessionAudience, &claims); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// SignState wraps an OAuth nonce in a short-lived token passed as the state
// parameter.
func SignState(nonce string, ttl time.Duration) (string, error) {
	if nonce == "" {
		return "", errors.New("nonce is required")
	}
	now := time.Now().UTC()
	return sign(jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   nonce,
		Audience:  jwt.ClaimStrings{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
}

// VerifyState returns the nonce carried by a state token from SignState.
func VerifyState(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	if err := parse(raw, stateAudience, &claims); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func sign(claims jwt.Claims) (string, error) {
	key, err := secretKey()
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func parse(raw, audience string, claims jwt.Claims) error {
	key, err := secretKey()
	if err != nil {
		return err
	}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if sub, _ := claims.GetSubject(); sub == "" {
		return ErrInvalidToken
	}
	return nil
}

// secretKey reads JWT_SECRET. Production requires a secret of at least 32
// bytes; other environments fall back to a fixed development key.
func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ENV"))) {
	case "production", "prod":
		if len(secret) < minProdSecret {
			return nil, fmt.Errorf("%w: JWT_SECRET of at least %d bytes required in production", errMissingSecret, minProdSecret)
		}
	default:
		if secret == "" {
			secret = devSecret
		}
	}
	return []byte(secret), nil
}
