package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/surveys"
)

type fixture struct {
	svc     *Service
	surveys *surveys.Service
	repo    *MemoryRepo
	cache   *fakeRedis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)

	surveySvc := surveys.NewService(surveys.NewMemoryRepo(), scoring.DefaultConfig())
	repo := NewMemoryRepo()
	client := newFakeRedis()
	svc := NewService(repo, NewRedisCache(client, time.Minute), engine, surveySvc)
	svc.Now = func() time.Time { return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, surveys: surveySvc, repo: repo, cache: client}
}

func (f fixture) createSurvey(t *testing.T, owner string) surveys.Survey {
	t.Helper()
	survey, err := f.surveys.Create(context.Background(), surveys.CreateInput{
		OwnerID:          owner,
		OrganizationName: "Acme",
		Title:            "Q2",
		Questions: []scoring.Question{
			{ID: "q1", Text: "trust", ResponseType: scoring.ResponseNumericScale, Theme: scoring.ThemeTrustInLeadership},
			{ID: "q2", Text: "notes", ResponseType: scoring.ResponseFreeText},
		},
	})
	require.NoError(t, err)
	return survey
}

func (f fixture) submit(t *testing.T, surveyID, respondent string, answers ...scoring.Response) {
	t.Helper()
	_, err := f.surveys.Submit(context.Background(), surveyID, respondent, answers)
	require.NoError(t, err)
}

func TestComputeScoresAllSubmissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	survey := f.createSurvey(t, "google:1")
	f.submit(t, survey.ID, "guest:a", scoring.NumericResponse{QuestionID: "q1", Value: 5}, scoring.TextResponse{QuestionID: "q2", Text: "ok"})
	f.submit(t, survey.ID, "guest:b", scoring.NumericResponse{QuestionID: "q1", Value: 3}, scoring.NumericResponse{QuestionID: "q9", Value: 3})

	result, err := f.svc.Compute(ctx, survey.ID, "google:1")
	require.NoError(t, err)

	// culture-trust averages 4 on a 1..5 scale -> 75, weighted by 0.35.
	assert.Equal(t, 26, result.OverallScore)
	assert.Equal(t, scoring.TierInterventionAdvised, result.Tier)
	assert.Equal(t, 2, result.SubmissionCount)
	assert.Equal(t, 1, result.ExcludedCount)
	assert.Equal(t, "Acme", result.OrganizationName)
	assert.Equal(t, scoring.DefaultConfig().Version, result.ConfigVersion)

	culture, ok := result.Result.Category(scoring.CategoryCultureTrust)
	require.True(t, ok)
	assert.Equal(t, 75, culture.Score)

	stored, err := f.repo.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result, stored)
	assert.Contains(t, f.cache.values, "pulsescore:result:"+result.ID)
}

func TestComputeWithoutSubmissionsYieldsLowestTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	survey := f.createSurvey(t, "google:1")

	result, err := f.svc.Compute(ctx, survey.ID, "google:1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.OverallScore)
	assert.Equal(t, scoring.TierInterventionAdvised, result.Tier)
	assert.Equal(t, 0, result.SubmissionCount)
	assert.Equal(t, 0, result.ExcludedCount)
	assert.Empty(t, result.Result.ThemeScores)
	require.Len(t, result.Result.CategoryScores, 3)
	for _, c := range result.Result.CategoryScores {
		assert.Equal(t, 0, c.Score, c.Category)
	}

	stored, err := f.repo.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result, stored)
}

func TestComputeRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	survey := f.createSurvey(t, "google:1")

	_, err := f.svc.Compute(ctx, survey.ID, "google:2")
	assert.True(t, IsNotFound(err))

	_, err = f.svc.ListForSurvey(ctx, survey.ID, "google:2", 0)
	assert.True(t, IsNotFound(err))
}

func TestGetReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := PulseResult{ID: "r1", SurveyID: "s1", OverallScore: 90, Tier: scoring.TierPulseCertified}
	require.NoError(t, f.repo.Create(ctx, stored))

	got, err := f.svc.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	assert.Contains(t, f.cache.values, "pulsescore:result:r1")

	// A cached entry is served even if the repo no longer has it.
	f.svc.Repo = NewMemoryRepo()
	got, err = f.svc.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 90, got.OverallScore)

	_, err = f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFallsBackWhenCacheFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, PulseResult{ID: "r1", OverallScore: 55, Tier: scoring.TierAtRisk}))
	f.cache.getErr = errors.New("redis down")

	got, err := f.svc.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 55, got.OverallScore)
}

func TestListForSurveyNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	survey := f.createSurvey(t, "google:1")
	f.submit(t, survey.ID, "guest:a", scoring.NumericResponse{QuestionID: "q1", Value: 5})

	first, err := f.svc.Compute(ctx, survey.ID, "google:1")
	require.NoError(t, err)
	f.svc.Now = func() time.Time { return time.Date(2026, time.June, 2, 12, 0, 0, 0, time.UTC) }
	second, err := f.svc.Compute(ctx, survey.ID, "google:1")
	require.NoError(t, err)

	items, err := f.svc.ListForSurvey(ctx, survey.ID, "google:1", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}
