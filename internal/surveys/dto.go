package surveys

import (
	"time"

	"pulsescore-backend/internal/scoring"
)

type createSurveyRequest struct {
	OrganizationName string             `json:"organizationName" binding:"required,max=200"`
	Title            string             `json:"title" binding:"required,max=200"`
	Questions        []scoring.Question `json:"questions" binding:"required,min=1"`
}

type submitRequest struct {
	Answers scoring.Responses `json:"answers" binding:"required"`
}

// SurveyResponse is the outward-facing representation of a survey.
type SurveyResponse struct {
	SurveyID         string             `json:"surveyId"`
	OrganizationName string             `json:"organizationName"`
	Title            string             `json:"title"`
	ConfigVersion    string             `json:"configVersion"`
	Questions        []scoring.Question `json:"questions,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

type submissionResponse struct {
	SubmissionID string    `json:"submissionId"`
	SurveyID     string    `json:"surveyId"`
	Answers      int       `json:"answers"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toResponse(s Survey) SurveyResponse {
	return SurveyResponse{
		SurveyID:         s.ID,
		OrganizationName: s.OrganizationName,
		Title:            s.Title,
		ConfigVersion:    s.ConfigVersion,
		Questions:        s.Questions,
		CreatedAt:        s.CreatedAt,
	}
}
