package surveys

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for development and tests.
type MemoryRepo struct {
	mu          sync.RWMutex
	surveys     map[string]Survey
	submissions map[string][]Submission
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		surveys:     make(map[string]Survey),
		submissions: make(map[string][]Submission),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, survey Survey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	survey.Questions = append(survey.Questions[:0:0], survey.Questions...)
	r.surveys[survey.ID] = survey
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Survey, error) {
	if err := ctx.Err(); err != nil {
		return Survey{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surveys[id]
	if !ok {
		return Survey{}, ErrNotFound
	}
	s.Questions = append(s.Questions[:0:0], s.Questions...)
	return s, nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Survey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Survey
	for _, s := range r.surveys {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) AddSubmission(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[sub.SurveyID]; !ok {
		return ErrNotFound
	}
	r.submissions[sub.SurveyID] = append(r.submissions[sub.SurveyID], sub)
	return nil
}

func (r *MemoryRepo) ListSubmissions(ctx context.Context, surveyID string) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Submission(nil), r.submissions[surveyID]...), nil
}

func (r *MemoryRepo) CountSubmissions(ctx context.Context, surveyID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.submissions[surveyID]), nil
}
