package users

import (
	"context"
	"strings"
	"time"
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// RecordLogin persists the identity returned by the OAuth provider so
// survey ownership survives profile changes.
func (s *Service) RecordLogin(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	user.ID = strings.TrimSpace(user.ID)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.ID == "" || user.Email == "" {
		return User{}, ErrInvalidUser
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}
	return s.Repo.UpsertLogin(ctx, user, now)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}
