package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gmailapi "google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractContentMultipart(t *testing.T) {
	msg := &gmailapi.Message{
		Id:       "m1",
		ThreadId: "t1",
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: "Invoice question"},
				{Name: "From", Value: `Alice Smith <alice@example.com>`},
				{Name: "To", Value: "support@acme.com"},
				{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
				{Name: "Message-ID", Value: "<orig@mail.example.com>"},
			},
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("Where is my invoice?\r\n")}},
						{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("<p>ignored</p>")}},
					},
				},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("Second part.")}},
			},
		},
	}

	content := ExtractContent(msg)

	assert.Equal(t, "m1", content.MessageID)
	assert.Equal(t, "t1", content.ThreadID)
	assert.Equal(t, "Invoice question", content.Subject)
	assert.Equal(t, "Alice Smith <alice@example.com>", content.From)
	assert.Equal(t, "Alice Smith", content.FromName)
	assert.Equal(t, "support@acme.com", content.To)
	assert.Equal(t, "<orig@mail.example.com>", content.ReplyToHeader)
	assert.Equal(t, "Where is my invoice?\nSecond part.", content.Body)

	expected, err := time.Parse(time.RFC1123Z, "Mon, 02 Jan 2006 15:04:05 -0700")
	require.NoError(t, err)
	assert.True(t, content.Date.Equal(expected))
}

func TestExtractContentSinglePart(t *testing.T) {
	msg := &gmailapi.Message{
		Id: "m2",
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "bob@example.com"},
			},
			Body: &gmailapi.MessagePartBody{Data: encodeBody("Plain body only.")},
		},
	}

	content := ExtractContent(msg)

	assert.Equal(t, "Plain body only.", content.Body)
	assert.Equal(t, "bob", content.FromName)
	assert.Equal(t, "No subject", content.Subject)
	assert.Equal(t, "Unknown recipient", content.To)
}

func TestExtractContentMissingPayload(t *testing.T) {
	msg := &gmailapi.Message{Id: "m3", InternalDate: 1700000000000}

	content := ExtractContent(msg)

	assert.Equal(t, "No subject", content.Subject)
	assert.Equal(t, "Unknown sender", content.From)
	assert.Empty(t, content.Body)
	assert.Equal(t, time.Unix(1700000000, 0), content.Date)
}

func TestExtractContentMalformedBase64(t *testing.T) {
	msg := &gmailapi.Message{
		Id: "m4",
		Payload: &gmailapi.MessagePart{
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: "!!!not-base64!!!"}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("Readable part.")}},
			},
		},
	}

	content := ExtractContent(msg)

	// The broken part is dropped, the readable one survives.
	assert.Equal(t, "Readable part.", content.Body)
}

func TestExtractNameFromAddress(t *testing.T) {
	tests := []struct {
		from     string
		expected string
	}{
		{`"Alice Smith" <alice@example.com>`, "Alice Smith"},
		{"Bob <bob@example.com>", "Bob"},
		{"carol@example.com", "carol"},
		{"not-an-address", "not-an-address"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, extractNameFromAddress(tt.from))
	}
}
