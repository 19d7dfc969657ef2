package usecase

import (
	"context"
	"time"

	accountdomain "replypilot-backend/internal/account/domain"
	pipelinedomain "replypilot-backend/internal/pipeline/domain"
)

// ProcessingUsecase drives one notification through the pipeline:
// resolve history, dedup, classify, conditionally generate and draft,
// record outcomes, advance the cursor.
type ProcessingUsecase interface {
	// ProcessNotification handles one change notification for an account.
	// Returns the number of messages for which an audit row was newly
	// created. Failures before enumeration abort the invocation; failures
	// inside a single message are contained and never fail the batch.
	ProcessNotification(ctx context.Context, accountID, cursor string) (int, error)
}

// AccountStore is the slice of account persistence the pipeline needs.
type AccountStore interface {
	FindByIDWithFAQs(id string) (*accountdomain.Account, error)
	UpdateCursor(id, historyID string) error
	UpdateTokens(id, accessToken, refreshToken string, expiresAt *time.Time) error
}

// Aliases keep call sites in this package terse.
type (
	MailboxClient        = pipelinedomain.MailboxClient
	MailboxClientFactory = pipelinedomain.MailboxClientFactory
)
