package results

import "pulsescore-backend/internal/scoring"

type previewRequest struct {
	Questions []scoring.Question `json:"questions" binding:"required,min=1"`
	Responses scoring.Responses  `json:"responses"`
}

type previewResponse struct {
	scoring.Result
	Exclusions []scoring.Exclusion `json:"exclusions"`
}

type listResponse struct {
	Items []PulseResult `json:"items"`
}
