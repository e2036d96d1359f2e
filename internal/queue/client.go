package queue

import (
	"context"
	"errors"
)

// ErrQueueNotConfigured is returned when no queue URL is set.
var ErrQueueNotConfigured = errors.New("certificate queue not configured")

// Client sends jobs to a queue backend.
type Client interface {
	Send(ctx context.Context, job CertificateJob) error
}
