package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrInvalidUser   = errors.New("user id and email are required")
	errNotConfigured = errors.New("users service not configured")
)

type Repo interface {
	// UpsertLogin creates or refreshes the account and stamps the login time.
	UpsertLogin(ctx context.Context, user User, at time.Time) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
}
