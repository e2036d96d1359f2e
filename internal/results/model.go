package results

import (
	"time"

	"pulsescore-backend/internal/scoring"
)

// PulseResult is a persisted scoring run over every submission of a survey.
type PulseResult struct {
	ID               string         `json:"resultId"`
	SurveyID         string         `json:"surveyId"`
	OrganizationName string         `json:"organizationName"`
	OverallScore     int            `json:"overallScore"`
	Tier             scoring.Tier   `json:"tier"`
	Result           scoring.Result `json:"result"`
	SubmissionCount  int            `json:"submissionCount"`
	ExcludedCount    int            `json:"excludedCount"`
	ConfigVersion    string         `json:"configVersion"`
	CreatedAt        time.Time      `json:"createdAt"`
}
