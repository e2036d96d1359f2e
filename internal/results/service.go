package results

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/shared/telemetry"
	"pulsescore-backend/internal/surveys"
)

// SurveySource is the slice of the surveys service that scoring needs.
type SurveySource interface {
	Get(ctx context.Context, id string) (surveys.Survey, error)
	GetOwned(ctx context.Context, id, ownerID string) (surveys.Survey, error)
	Responses(ctx context.Context, surveyID string) (scoring.Responses, int, error)
}

// Service scores surveys and stores the outcome.
type Service struct {
	Repo    Repo
	Cache   Cache
	Engine  *scoring.Engine
	Surveys SurveySource
	Now     func() time.Time
}

// NewService constructs a Service. A nil cache disables caching.
func NewService(repo Repo, cache Cache, engine *scoring.Engine, src SurveySource) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		Repo:    repo,
		Cache:   cache,
		Engine:  engine,
		Surveys: src,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the scoring configuration in use.
func (s *Service) Config() scoring.Config {
	return s.Engine.Config()
}

// Preview scores ad-hoc questions and responses without persisting anything.
func (s *Service) Preview(questions []scoring.Question, responses scoring.Responses) scoring.Evaluation {
	return s.Engine.Run(questions, responses)
}

// Compute scores every submission of an owned survey and stores the result.
// A survey nobody has answered yet still yields a result at the lowest tier.
func (s *Service) Compute(ctx context.Context, surveyID, ownerID string) (PulseResult, error) {
	survey, err := s.Surveys.GetOwned(ctx, surveyID, ownerID)
	if err != nil {
		return PulseResult{}, err
	}
	responses, count, err := s.Surveys.Responses(ctx, survey.ID)
	if err != nil {
		return PulseResult{}, err
	}
	ev := s.Engine.Run(survey.Questions, responses)
	result := PulseResult{
		ID:               uuid.NewString(),
		SurveyID:         survey.ID,
		OrganizationName: survey.OrganizationName,
		OverallScore:     ev.Result.OverallScore,
		Tier:             ev.Result.Tier,
		Result:           ev.Result,
		SubmissionCount:  count,
		ExcludedCount:    len(ev.Exclusions),
		ConfigVersion:    s.Engine.Config().Version,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Create(ctx, result); err != nil {
		return PulseResult{}, err
	}
	s.cacheSet(ctx, result)

	telemetry.Info("results.computed", map[string]any{
		"survey_id":     survey.ID,
		"result_id":     result.ID,
		"request_id":    telemetry.RequestID(ctx),
		"overall_score": result.OverallScore,
		"tier":          string(result.Tier),
		"submissions":   count,
		"excluded":      result.ExcludedCount,
	})
	return result, nil
}

// Get returns a result by id, reading through the cache.
func (s *Service) Get(ctx context.Context, id string) (PulseResult, error) {
	if cached, ok, err := s.Cache.Get(ctx, id); err != nil {
		telemetry.Warn("results.cache_get_failed", map[string]any{"result_id": id, "error": err.Error()})
	} else if ok {
		return cached, nil
	}

	result, err := s.Repo.Get(ctx, id)
	if err != nil {
		return PulseResult{}, err
	}
	s.cacheSet(ctx, result)
	return result, nil
}

// ListForSurvey returns the stored results of an owned survey.
func (s *Service) ListForSurvey(ctx context.Context, surveyID, ownerID string, limit int) ([]PulseResult, error) {
	if _, err := s.Surveys.GetOwned(ctx, surveyID, ownerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Repo.ListBySurvey(ctx, surveyID, limit)
}

// IsNotFound reports whether err means the survey or result does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, surveys.ErrNotFound)
}

func (s *Service) cacheSet(ctx context.Context, result PulseResult) {
	if err := s.Cache.Set(ctx, result); err != nil {
		telemetry.Warn("results.cache_set_failed", map[string]any{"result_id": result.ID, "error": err.Error()})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
