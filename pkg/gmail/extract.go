package gmail

import (
	"encoding/base64"
	"log"
	"strings"
	"time"

	pipelinedomain "replypilot-backend/internal/pipeline/domain"

	gmailapi "google.golang.org/api/gmail/v1"
)

// ExtractContent normalizes a full Gmail message into the flat structure the
// pipeline works with. It never fails: missing headers get sentinels and an
// unparseable body yields empty content, so classification still runs.
func ExtractContent(msg *gmailapi.Message) *pipelinedomain.EmailContent {
	content := &pipelinedomain.EmailContent{
		MessageID: msg.Id,
		ThreadID:  msg.ThreadId,
		Subject:   "No subject",
		From:      "Unknown sender",
		To:        "Unknown recipient",
		Date:      time.Unix(msg.InternalDate/1000, 0),
	}

	if msg.Payload == nil {
		return content
	}

	if subject := getHeader(msg.Payload.Headers, "Subject"); subject != "" {
		content.Subject = subject
	}
	if from := getHeader(msg.Payload.Headers, "From"); from != "" {
		content.From = from
	}
	if to := getHeader(msg.Payload.Headers, "To"); to != "" {
		content.To = to
	}
	content.ReplyToHeader = getHeader(msg.Payload.Headers, "Message-ID")
	content.FromName = extractNameFromAddress(content.From)

	if date := getHeader(msg.Payload.Headers, "Date"); date != "" {
		if parsed, err := parseDate(date); err == nil {
			content.Date = parsed
		}
	}

	content.Body = extractPlainBody(msg.Payload, msg.Id)
	return content
}

func getHeader(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
}

func parseDate(value string) (time.Time, error) {
	var err error
	for _, format := range dateFormats {
		var t time.Time
		if t, err = time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// extractPlainBody concatenates every text/plain part, falling back to the
// top-level body for single-part messages. Line endings are normalized to LF.
func extractPlainBody(payload *gmailapi.MessagePart, messageID string) string {
	var b strings.Builder

	var walk func(parts []*gmailapi.MessagePart)
	walk = func(parts []*gmailapi.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err != nil {
					log.Printf("[Gmail] undecodable body part in message %s: %v", messageID, err)
					continue
				}
				b.Write(data)
			}
			if len(part.Parts) > 0 {
				walk(part.Parts)
			}
		}
	}

	if len(payload.Parts) > 0 {
		walk(payload.Parts)
	} else if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err != nil {
			log.Printf("[Gmail] undecodable body in message %s: %v", messageID, err)
		} else {
			b.Write(data)
		}
	}

	body := strings.ReplaceAll(b.String(), "\r\n", "\n")
	return strings.TrimSpace(body)
}

// extractNameFromAddress pulls a display name out of "Name <addr>" headers,
// falling back to the local part of a bare address.
func extractNameFromAddress(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		name := strings.TrimSpace(from[:idx])
		return strings.Trim(name, `"`)
	}
	if at := strings.Index(from, "@"); at > 0 {
		return from[:at]
	}
	return from
}
