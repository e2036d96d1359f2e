package results

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores results in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]PulseResult
	bySurvey map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:     make(map[string]PulseResult),
		bySurvey: make(map[string][]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, result PulseResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[result.ID] = result
	r.bySurvey[result.SurveyID] = append(r.bySurvey[result.SurveyID], result.ID)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (PulseResult, error) {
	if err := ctx.Err(); err != nil {
		return PulseResult{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.byID[id]
	if !ok {
		return PulseResult{}, ErrNotFound
	}
	return result, nil
}

// ListBySurvey returns results newest first.
func (r *MemoryRepo) ListBySurvey(ctx context.Context, surveyID string, limit int) ([]PulseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.bySurvey[surveyID]
	out := make([]PulseResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
