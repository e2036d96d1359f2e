package llm

import (
	"context"
	"errors"
)

// TextClient completes a single prompt with free text.
type TextClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("llm provider not configured")

// Disabled is the client used when LLM_PROVIDER is none.
type Disabled struct{}

func (Disabled) Complete(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Provider() string { return "none" }
