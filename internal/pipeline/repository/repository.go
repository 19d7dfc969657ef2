package repository

import (
	"errors"

	pipelinedomain "replypilot-backend/internal/pipeline/domain"
)

// ErrDuplicateMessage is returned by Create when a row for the Gmail message
// ID already exists. The pipeline treats it as "already processed, skip".
var ErrDuplicateMessage = errors.New("message already processed")

// ProcessedMessageRepository persists the per-message audit log.
type ProcessedMessageRepository interface {
	// Create inserts the audit row. The database unique index on the Gmail
	// message ID is the dedup gate; a violation surfaces as
	// ErrDuplicateMessage rather than check-then-insert in application code.
	Create(message *pipelinedomain.ProcessedMessage) error

	ExistsByGmailMessageID(gmailMessageID string) (bool, error)

	// MarkResponse records the response-generation outcome on an existing row.
	MarkResponse(id string, draftCreated bool, gmailDraftID string) error

	ListByAccount(accountID string, limit, offset int) ([]*pipelinedomain.ProcessedMessage, error)
}
