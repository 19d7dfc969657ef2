package domain

import "time"

// ProcessedMessage is the audit row written once per examined Gmail message.
// The unique index on GmailMessageID is the dedup gate: creation of this row
// is the single atomic point that decides whether a message is processed,
// including across concurrent notification deliveries.
type ProcessedMessage struct {
	ID             string `json:"id" gorm:"primaryKey"`
	AccountID      string `json:"account_id" gorm:"index;not null"`
	GmailMessageID string `json:"gmail_message_id" gorm:"uniqueIndex;not null"`
	GmailThreadID  string `json:"gmail_thread_id"`

	Subject    string    `json:"subject"`
	FromEmail  string    `json:"from_email"`
	FromName   string    `json:"from_name"`
	ReceivedAt time.Time `json:"received_at"`

	Intent     string  `json:"intent"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`

	ResponseGenerated bool   `json:"response_generated"`
	DraftCreated      bool   `json:"draft_created"`
	GmailDraftID      string `json:"gmail_draft_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
