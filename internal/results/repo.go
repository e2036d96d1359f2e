package results

import "context"

// Repo defines persistence operations for pulse results.
type Repo interface {
	Create(ctx context.Context, result PulseResult) error
	Get(ctx context.Context, id string) (PulseResult, error)
	ListBySurvey(ctx context.Context, surveyID string, limit int) ([]PulseResult, error)
}
