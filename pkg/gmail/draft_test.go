package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplySubject(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		expected string
	}{
		{"plain subject", "Order status", "Re: Order status"},
		{"already prefixed", "Re: Order status", "Re: Order status"},
		{"prefixed lowercase", "re: order status", "re: order status"},
		{"prefixed uppercase", "RE: Order status", "RE: Order status"},
		{"surrounding whitespace", "  Order status  ", "Re: Order status"},
		{"empty subject", "", "Re: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, replySubject(tt.subject))
		})
	}
}

func TestBuildDraftRaw(t *testing.T) {
	raw := buildDraftRaw("alice@example.com", "Hello", "Thanks for reaching out.", "<msg-123@mail.example.com>")

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	msg := string(decoded)
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Re: Hello\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.Contains(t, msg, "In-Reply-To: <msg-123@mail.example.com>\r\n")
	assert.Contains(t, msg, "References: <msg-123@mail.example.com>\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nThanks for reaching out."))
}

func TestBuildDraftRawWithoutThreadingHeaders(t *testing.T) {
	raw := buildDraftRaw("bob@example.com", "Hi", "Body", "")

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	msg := string(decoded)
	assert.NotContains(t, msg, "In-Reply-To:")
	assert.NotContains(t, msg, "References:")
}
