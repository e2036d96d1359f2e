package certificates

import "time"

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Certificate tracks one certificate email for a stored result.
type Certificate struct {
	ID             string     `json:"certificateId"`
	ResultID       string     `json:"resultId"`
	RecipientEmail string     `json:"recipientEmail"`
	IssuedOn       time.Time  `json:"issuedOn"`
	ObjectKey      string     `json:"objectKey,omitempty"`
	Status         string     `json:"status"`
	ErrorMessage   *string    `json:"errorMessage,omitempty"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
