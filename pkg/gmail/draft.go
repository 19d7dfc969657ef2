package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// replySubject prefixes a subject with "Re: " exactly once.
func replySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}

// buildDraftRaw assembles a plain-text RFC 2822 reply message and returns it
// base64url-encoded for the Gmail drafts API. When inReplyTo carries the
// original Message-ID, threading headers make Gmail attach the draft to the
// existing conversation.
func buildDraftRaw(to, subject, body, inReplyTo string) string {
	var msg strings.Builder

	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", replySubject(subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	if inReplyTo != "" {
		fmt.Fprintf(&msg, "In-Reply-To: %s\r\n", inReplyTo)
		fmt.Fprintf(&msg, "References: %s\r\n", inReplyTo)
	}
	msg.WriteString("\r\n")
	msg.WriteString(strings.TrimSpace(body))

	return base64.URLEncoding.EncodeToString([]byte(msg.String()))
}
