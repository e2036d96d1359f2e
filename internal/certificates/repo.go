package certificates

import (
	"context"
	"time"
)

// Repo defines persistence operations for certificates.
type Repo interface {
	Create(ctx context.Context, cert Certificate) error
	Get(ctx context.Context, id string) (Certificate, error)
	MarkSent(ctx context.Context, id, objectKey string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
}
