package certificates

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores certificates in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Certificate
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Certificate)}
}

func (r *MemoryRepo) Create(ctx context.Context, cert Certificate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[cert.ID] = cert
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Certificate, error) {
	if err := ctx.Err(); err != nil {
		return Certificate{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cert, ok := r.byID[id]
	if !ok {
		return Certificate{}, ErrNotFound
	}
	return cert, nil
}

func (r *MemoryRepo) MarkSent(ctx context.Context, id, objectKey string, sentAt time.Time) error {
	return r.update(ctx, id, func(c *Certificate) {
		c.Status = StatusSent
		c.ObjectKey = objectKey
		c.SentAt = &sentAt
		c.ErrorMessage = nil
	})
}

func (r *MemoryRepo) MarkFailed(ctx context.Context, id, message string) error {
	return r.update(ctx, id, func(c *Certificate) {
		c.Status = StatusFailed
		c.ErrorMessage = &message
	})
}

func (r *MemoryRepo) update(ctx context.Context, id string, fn func(*Certificate)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cert, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	fn(&cert)
	cert.UpdatedAt = time.Now().UTC()
	r.byID[id] = cert
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
