package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps accounts in process memory for local development and
// tests. It follows the same merge rules as the Postgres upsert.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]User{}}
}

func (r *MemoryRepo) UpsertLogin(ctx context.Context, login User, at time.Time) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, seen := r.byID[login.ID]
	if !seen {
		stored = User{ID: login.ID, CreatedAt: at}
	}
	stored.Email = login.Email
	// Providers may omit profile fields on later logins.
	if login.Name != "" {
		stored.Name = login.Name
	}
	if login.PictureURL != "" {
		stored.PictureURL = login.PictureURL
	}
	stored.UpdatedAt = at
	r.byID[login.ID] = stored
	return withLogin(stored, at), nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return withLogin(u, u.UpdatedAt), nil
}

// withLogin hands out a fresh LastLoginAt pointer so callers cannot reach
// into stored state.
func withLogin(u User, at time.Time) User {
	t := at
	u.LastLoginAt = &t
	return u
}
