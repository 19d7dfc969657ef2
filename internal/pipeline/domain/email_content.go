package domain

import "time"

// EmailContent is the normalized view of a Gmail message used within one
// processing pass. Not persisted.
type EmailContent struct {
	MessageID string
	ThreadID  string
	Subject   string
	From      string
	FromName  string
	To        string
	Date      time.Time
	Body      string

	// RFC 2822 Message-ID header of the original message, used for
	// In-Reply-To/References threading on the draft.
	ReplyToHeader string
}
