package insights

import (
	"context"
	"time"

	"pulsescore-backend/internal/results"
	"pulsescore-backend/internal/shared/telemetry"
)

const (
	SourceCanned     = "canned"
	SourceGenerative = "generative"
)

// ResultSource loads stored results.
type ResultSource interface {
	Get(ctx context.Context, id string) (results.PulseResult, error)
}

// Report is the insight payload for one result.
type Report struct {
	ResultID        string    `json:"resultId"`
	Tier            string    `json:"tier"`
	Recommendations []Insight `json:"recommendations"`
	Insights        []string  `json:"insights"`
	Source          string    `json:"source"`
}

// Service combines canned recommendations with optional generated text.
type Service struct {
	Results    ResultSource
	Canned     *Canned
	Generative Generator
	Timeout    time.Duration
}

// ForResult builds the report for a stored result. Generation failures fall
// back to the canned lines.
func (s *Service) ForResult(ctx context.Context, resultID string) (Report, error) {
	stored, err := s.Results.Get(ctx, resultID)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		ResultID:        stored.ID,
		Tier:            string(stored.Tier),
		Recommendations: s.Canned.Recommend(stored.Result),
		Source:          SourceCanned,
	}

	if s.Generative != nil {
		genCtx := ctx
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}
		lines, err := s.Generative.Generate(genCtx, stored.Result)
		if err == nil {
			report.Insights = lines
			report.Source = SourceGenerative
			return report, nil
		}
		telemetry.Warn("insights.generation_failed", map[string]any{
			"result_id": stored.ID,
			"error":     err.Error(),
		})
	}

	lines, _ := s.Canned.Generate(ctx, stored.Result)
	report.Insights = lines
	return report, nil
}
