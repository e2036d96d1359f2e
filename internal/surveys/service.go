package surveys

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/shared/telemetry"
	"pulsescore-backend/internal/shared/util"
)

const (
	maxQuestions       = 200
	maxAnswers         = 500
	maxTextAnswerBytes = 4000
)

// Service contains business logic for surveys and submissions.
type Service struct {
	Repo    Repo
	Scoring scoring.Config
	Now     func() time.Time
}

// NewService builds a Service validating themes against cfg.
func NewService(repo Repo, cfg scoring.Config) *Service {
	return &Service{Repo: repo, Scoring: cfg, Now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput is the caller-supplied survey definition.
type CreateInput struct {
	OwnerID          string
	OrganizationName string
	Title            string
	Questions        []scoring.Question
}

// Create validates and stores a survey.
func (s *Service) Create(ctx context.Context, in CreateInput) (Survey, error) {
	if s == nil || s.Repo == nil {
		return Survey{}, errors.New("surveys service not configured")
	}
	questions, err := s.validateQuestions(in.Questions)
	if err != nil {
		return Survey{}, err
	}
	org := strings.TrimSpace(in.OrganizationName)
	title := strings.TrimSpace(in.Title)
	if org == "" {
		return Survey{}, fmt.Errorf("%w: organizationName is required", ErrInvalidSurvey)
	}
	if title == "" {
		return Survey{}, fmt.Errorf("%w: title is required", ErrInvalidSurvey)
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return Survey{}, fmt.Errorf("%w: owner is required", ErrInvalidSurvey)
	}

	survey := Survey{
		ID:               uuid.NewString(),
		OwnerID:          in.OwnerID,
		OrganizationName: org,
		Title:            title,
		ConfigVersion:    s.Scoring.Version,
		Questions:        questions,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Create(ctx, survey); err != nil {
		return Survey{}, err
	}
	telemetry.Info("survey.created", map[string]any{
		"survey_id": survey.ID,
		"owner_id":  survey.OwnerID,
		"questions": len(survey.Questions),
	})
	return survey, nil
}

func (s *Service) validateQuestions(in []scoring.Question) ([]scoring.Question, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", ErrInvalidSurvey)
	}
	if len(in) > maxQuestions {
		return nil, fmt.Errorf("%w: at most %d questions are allowed", ErrInvalidSurvey, maxQuestions)
	}
	seen := make(map[string]bool, len(in))
	out := make([]scoring.Question, 0, len(in))
	for i, q := range in {
		q.ID = strings.TrimSpace(q.ID)
		q.Text = strings.TrimSpace(q.Text)
		q.Theme = strings.TrimSpace(q.Theme)
		if q.ID == "" {
			return nil, fmt.Errorf("%w: questions[%d].id is required", ErrInvalidSurvey, i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: questions[%d].id %q is duplicated", ErrInvalidSurvey, i, q.ID)
		}
		seen[q.ID] = true
		if q.Text == "" {
			return nil, fmt.Errorf("%w: questions[%d].text is required", ErrInvalidSurvey, i)
		}
		if !q.ResponseType.Valid() {
			return nil, fmt.Errorf("%w: questions[%d].responseType must be one of numeric-scale, free-text, binary", ErrInvalidSurvey, i)
		}
		if q.Scored() {
			if _, ok := s.Scoring.CategoryOf(q.Theme); !ok {
				return nil, fmt.Errorf("%w: questions[%d].theme %q is not a known theme", ErrInvalidSurvey, i, q.Theme)
			}
		}
		if q.Weight < 0 || math.IsNaN(q.Weight) || math.IsInf(q.Weight, 0) {
			return nil, fmt.Errorf("%w: questions[%d].weight must be positive", ErrInvalidSurvey, i)
		}
		q.Weight = q.EffectiveWeight()
		out = append(out, q)
	}
	return out, nil
}

// Get returns a survey by id.
func (s *Service) Get(ctx context.Context, id string) (Survey, error) {
	if strings.TrimSpace(id) == "" {
		return Survey{}, ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

// GetOwned returns a survey only if ownerID owns it.
func (s *Service) GetOwned(ctx context.Context, id, ownerID string) (Survey, error) {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return Survey{}, err
	}
	if survey.OwnerID != ownerID {
		return Survey{}, ErrNotFound
	}
	return survey, nil
}

// List returns the owner's most recent surveys.
func (s *Service) List(ctx context.Context, ownerID string, limit int) ([]Survey, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit)
}

// Submit records one respondent's answers. Answers to unknown questions are
// kept as submitted; the scoring pipeline excludes them when results are computed.
func (s *Service) Submit(ctx context.Context, surveyID, respondentID string, answers scoring.Responses) (Submission, error) {
	survey, err := s.Get(ctx, surveyID)
	if err != nil {
		return Submission{}, err
	}
	if strings.TrimSpace(respondentID) == "" {
		return Submission{}, fmt.Errorf("%w: respondent is required", ErrInvalidSubmission)
	}
	if len(answers) == 0 {
		return Submission{}, fmt.Errorf("%w: answers must not be empty", ErrInvalidSubmission)
	}
	if len(answers) > maxAnswers {
		return Submission{}, fmt.Errorf("%w: at most %d answers are allowed", ErrInvalidSubmission, maxAnswers)
	}
	for i, a := range answers {
		if a == nil || strings.TrimSpace(a.QuestionRef()) == "" {
			return Submission{}, fmt.Errorf("%w: answers[%d].questionId is required", ErrInvalidSubmission, i)
		}
		if text, ok := a.(scoring.TextResponse); ok && len(text.Text) > maxTextAnswerBytes {
			return Submission{}, fmt.Errorf("%w: answers[%d].value is too long", ErrInvalidSubmission, i)
		}
	}

	sub := Submission{
		ID:            uuid.NewString(),
		SurveyID:      survey.ID,
		RespondentKey: util.HashKey(survey.ID + ":" + respondentID),
		Answers:       answers,
		CreatedAt:     s.now(),
	}
	if err := s.Repo.AddSubmission(ctx, sub); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Responses flattens every stored submission of a survey into one response set.
func (s *Service) Responses(ctx context.Context, surveyID string) (scoring.Responses, int, error) {
	subs, err := s.Repo.ListSubmissions(ctx, surveyID)
	if err != nil {
		return nil, 0, err
	}
	var out scoring.Responses
	for _, sub := range subs {
		out = append(out, sub.Answers...)
	}
	return out, len(subs), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
