package surveys

import (
	"time"

	"pulsescore-backend/internal/scoring"
)

// Survey is a questionnaire issued for one organization.
type Survey struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"ownerId"`
	OrganizationName string             `json:"organizationName"`
	Title            string             `json:"title"`
	ConfigVersion    string             `json:"configVersion"`
	Questions        []scoring.Question `json:"questions"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// Submission is one respondent's answers to a survey. RespondentKey is a
// pseudonym, never the raw respondent id.
type Submission struct {
	ID            string            `json:"id"`
	SurveyID      string            `json:"surveyId"`
	RespondentKey string            `json:"-"`
	Answers       scoring.Responses `json:"answers"`
	CreatedAt     time.Time         `json:"createdAt"`
}
