package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"pulsescore-backend/internal/certificates"
	"pulsescore-backend/internal/queue"
	"pulsescore-backend/internal/shared/telemetry"
)

// Processor delivers one certificate.
type Processor interface {
	Deliver(ctx context.Context, certificateID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingCertificateID indicates a job without a certificate id.
type ErrMissingCertificateID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingCertificateID) Error() string { return "missing certificate id" }

// ErrProcess indicates delivery failed after successful parsing.
type ErrProcess struct {
	CertificateID string
	RequestID     string
	Err           error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process certificate"
	}
	return "process certificate: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.CertificateJob, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.CertificateJob{}, meta, ErrEmptyBody{Meta: meta}
	}

	job, err := queue.DecodeJob([]byte(body))
	if err != nil {
		return queue.CertificateJob{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(job.CertificateID) == "" {
		return job, meta, ErrMissingCertificateID{Meta: meta, RequestID: job.RequestID}
	}
	return job, meta, nil
}

// HandleCertificateJob parses and delivers one job. The request id of the API
// call that queued the job is carried on ctx into delivery.
func HandleCertificateJob(ctx context.Context, proc Processor, body string) error {
	if proc == nil {
		return errors.New("certificate service not configured")
	}
	job, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	ctx = telemetry.WithRequestID(ctx, job.RequestID)
	if err := proc.Deliver(ctx, job.CertificateID); err != nil {
		return ErrProcess{CertificateID: job.CertificateID, RequestID: job.RequestID, Err: err}
	}
	return nil
}

// Retryable reports whether the message should stay on the queue for another attempt.
// Malformed payloads and unknown certificates are dropped.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingCertificateID
	)
	switch {
	case errors.As(err, &empty), errors.As(err, &decode), errors.As(err, &missing):
		return false
	case errors.Is(err, certificates.ErrNotFound):
		return false
	}
	return true
}
