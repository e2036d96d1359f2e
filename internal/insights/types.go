package insights

import (
	"context"

	"pulsescore-backend/internal/scoring"
)

// Insight is a deterministic recommendation derived from a scoring result.
type Insight struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Why      string `json:"why"`
	Action   string `json:"action"`
	Impact   string `json:"impact"`
	Order    int    `json:"order"`
}

// Generator turns a scoring result into human-readable insight lines.
type Generator interface {
	Generate(ctx context.Context, result scoring.Result) ([]string, error)
}

const maxInsights = 7

const (
	severityCritical = "critical"
	severityWarning  = "warning"
	severityInfo     = "info"

	impactHigh   = "high"
	impactMedium = "medium"
	impactLow    = "low"
)
