package domain

import (
	"context"

	accountdomain "replypilot-backend/internal/account/domain"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
)

// TokenUpdateFunc persists a rotated OAuth token pair.
type TokenUpdateFunc func(token *oauth2.Token) error

// MailboxClient is an account-scoped view of the Gmail API, narrowed to the
// operations the processing pipeline needs.
type MailboxClient interface {
	// ListChangesSince returns the IDs of messages added since the cursor.
	// An empty cursor yields a bounded recent-inbox snapshot instead of
	// history. "No changes" is an empty slice, not an error.
	ListChangesSince(ctx context.Context, cursor string) ([]string, error)

	// FetchMessage resolves a message ID to the full provider message.
	// Returns errs.ErrNotFound when the message no longer exists.
	FetchMessage(ctx context.Context, messageID string) (*gmailapi.Message, error)

	// CreateDraft stores an unsent reply draft and returns its Gmail ID.
	// The subject gains a "Re:" prefix at most once; inReplyTo, when set,
	// threads the draft into the existing conversation.
	CreateDraft(ctx context.Context, to, subject, body, threadID, inReplyTo string) (string, error)
}

// MailboxClientFactory builds mailbox clients from stored account
// credentials.
type MailboxClientFactory interface {
	ClientFor(account *accountdomain.Account, onTokenRefresh TokenUpdateFunc) (MailboxClient, error)
}
