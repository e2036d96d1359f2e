package surveys

import "context"

// Repo persists surveys and their submissions.
type Repo interface {
	Create(ctx context.Context, survey Survey) error
	Get(ctx context.Context, id string) (Survey, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]Survey, error)
	AddSubmission(ctx context.Context, sub Submission) error
	ListSubmissions(ctx context.Context, surveyID string) ([]Submission, error)
	CountSubmissions(ctx context.Context, surveyID string) (int, error)
}
