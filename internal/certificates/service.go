package certificates

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"pulsescore-backend/internal/queue"
	"pulsescore-backend/internal/results"
	"pulsescore-backend/internal/shared/metrics"
	"pulsescore-backend/internal/shared/storage/object"
	"pulsescore-backend/internal/shared/telemetry"
	"pulsescore-backend/internal/surveys"
)

// ResultSource loads stored results.
type ResultSource interface {
	Get(ctx context.Context, id string) (results.PulseResult, error)
}

// SurveyOwner checks survey ownership.
type SurveyOwner interface {
	GetOwned(ctx context.Context, id, ownerID string) (surveys.Survey, error)
}

// Service issues certificates for stored results.
type Service struct {
	Repo    Repo
	Results ResultSource
	Surveys SurveyOwner
	Store   object.Store
	Mailer  Mailer
	// Queue defers delivery to the worker. Nil delivers inline.
	Queue queue.Client
	Now   func() time.Time
}

// RequestInput describes a certificate request.
type RequestInput struct {
	ResultID       string
	OwnerID        string
	RecipientEmail string
	RequestID      string // defaults to the id carried by ctx
}

// Request records a pending certificate and either enqueues or delivers it.
func (s *Service) Request(ctx context.Context, in RequestInput) (Certificate, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.RecipientEmail))
	if err != nil {
		return Certificate{}, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	result, err := s.Results.Get(ctx, in.ResultID)
	if err != nil {
		return Certificate{}, err
	}
	if _, err := s.Surveys.GetOwned(ctx, result.SurveyID, in.OwnerID); err != nil {
		return Certificate{}, err
	}

	now := s.now()
	cert := Certificate{
		ID:             uuid.NewString(),
		ResultID:       result.ID,
		RecipientEmail: addr.Address,
		IssuedOn:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, cert); err != nil {
		return Certificate{}, err
	}

	requestID := in.RequestID
	if requestID == "" {
		requestID = telemetry.RequestID(ctx)
	}
	if s.Queue != nil {
		job := queue.CertificateJob{
			CertificateID: cert.ID,
			RequestID:     requestID,
			EnqueuedAt:    now.Format(time.RFC3339),
			Version:       queue.JobVersion,
		}
		if err := s.Queue.Send(ctx, job); err != nil {
			_ = s.Repo.MarkFailed(ctx, cert.ID, "enqueue failed")
			return Certificate{}, fmt.Errorf("enqueue certificate: %w", err)
		}
		telemetry.Info("certificate.enqueued", map[string]any{
			"certificate_id": cert.ID,
			"result_id":      cert.ResultID,
			"request_id":     requestID,
		})
		return cert, nil
	}

	if err := s.Deliver(ctx, cert.ID); err != nil {
		return Certificate{}, err
	}
	return s.Repo.Get(ctx, cert.ID)
}

// Deliver renders, archives and mails a certificate. Certificates already
// sent are left alone.
func (s *Service) Deliver(ctx context.Context, certificateID string) error {
	cert, err := s.Repo.Get(ctx, certificateID)
	if err != nil {
		return err
	}
	if cert.Status == StatusSent {
		return nil
	}

	objectKey, err := s.deliver(ctx, cert)
	if err != nil {
		metrics.IncCertificateFailed()
		if markErr := s.Repo.MarkFailed(ctx, cert.ID, err.Error()); markErr != nil {
			telemetry.Error("certificate.mark_failed_error", map[string]any{
				"certificate_id": cert.ID,
				"error":          markErr.Error(),
			})
		}
		telemetry.Error("certificate.failed", map[string]any{
			"certificate_id": cert.ID,
			"result_id":      cert.ResultID,
			"request_id":     telemetry.RequestID(ctx),
			"error":          err.Error(),
		})
		return err
	}

	if err := s.Repo.MarkSent(ctx, cert.ID, objectKey, s.now()); err != nil {
		return err
	}
	metrics.IncCertificateSent()
	telemetry.Info("certificate.sent", map[string]any{
		"certificate_id": cert.ID,
		"result_id":      cert.ResultID,
		"object_key":     objectKey,
		"request_id":     telemetry.RequestID(ctx),
	})
	return nil
}

func (s *Service) deliver(ctx context.Context, cert Certificate) (string, error) {
	result, err := s.Results.Get(ctx, cert.ResultID)
	if err != nil {
		return "", fmt.Errorf("load result: %w", err)
	}
	rendered, err := Render(Document{
		CertificateID:    cert.ID,
		OrganizationName: result.OrganizationName,
		IssuedOn:         cert.IssuedOn,
		OverallScore:     result.OverallScore,
		Tier:             result.Tier,
		Categories:       result.Result.CategoryScores,
	})
	if err != nil {
		return "", err
	}

	key := ObjectKey(cert.ResultID, cert.ID)
	if _, err := s.Store.Put(ctx, key, "text/html; charset=utf-8", strings.NewReader(rendered.HTML)); err != nil {
		return "", fmt.Errorf("archive certificate: %w", err)
	}
	if err := s.Mailer.Send(ctx, Email{
		To:      cert.RecipientEmail,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	}); err != nil {
		return "", fmt.Errorf("send certificate: %w", err)
	}
	return key, nil
}

// Get returns a certificate if ownerID owns the survey behind it.
func (s *Service) Get(ctx context.Context, id, ownerID string) (Certificate, error) {
	cert, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Certificate{}, err
	}
	result, err := s.Results.Get(ctx, cert.ResultID)
	if err != nil {
		return Certificate{}, err
	}
	if _, err := s.Surveys.GetOwned(ctx, result.SurveyID, ownerID); err != nil {
		if errors.Is(err, surveys.ErrNotFound) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	return cert, nil
}

// ObjectKey is the archive location of a rendered certificate.
func ObjectKey(resultID, certificateID string) string {
	return fmt.Sprintf("certificates/%s/%s.html", resultID, certificateID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
