package certificates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pulsescore-backend/internal/shared/telemetry"
)

// Email is one outgoing message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// HTTPMailer posts messages to a Resend-compatible HTTP API.
type HTTPMailer struct {
	apiURL     string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewHTTPMailer constructs an HTTPMailer.
func NewHTTPMailer(apiURL, apiKey, from string) (*HTTPMailer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("MAIL_API_KEY is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("MAIL_FROM is required")
	}
	return &HTTPMailer{
		apiURL:     apiURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *HTTPMailer) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, email Email) error {
	telemetry.Info("mail.logged", map[string]any{
		"to":         email.To,
		"subject":    email.Subject,
		"html_bytes": len(email.HTML),
	})
	return nil
}
