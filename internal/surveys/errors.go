package surveys

import "errors"

var (
	// ErrNotFound indicates the survey does not exist or is not visible to the caller.
	ErrNotFound = errors.New("survey not found")
	// ErrInvalidSurvey indicates a survey definition failed validation.
	ErrInvalidSurvey = errors.New("invalid survey")
	// ErrInvalidSubmission indicates a submission failed validation.
	ErrInvalidSubmission = errors.New("invalid submission")
)
