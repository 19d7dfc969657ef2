package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pipelinedomain "replypilot-backend/internal/pipeline/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFence(tt.input))
		})
	}
}

func TestRelevantFAQs(t *testing.T) {
	faqs := []FAQ{
		{Question: "How do I get a refund?", Answer: "Within 30 days."},
		{Question: "What are your opening hours?", Answer: "9 to 5."},
		{Question: "Question about shipping costs", Answer: "Free over $50."},
	}

	classification := &Classification{Intent: "refund", Category: CategoryQuestion}

	relevant := relevantFAQs(faqs, classification, "I would like my money back")

	// "refund" matches the first question's text, "question" matches the third.
	require.Len(t, relevant, 2)
	assert.Equal(t, "How do I get a refund?", relevant[0].Question)
	assert.Equal(t, "Question about shipping costs", relevant[1].Question)
}

func TestRelevantFAQsBodyPrefixMatch(t *testing.T) {
	faqs := []FAQ{
		{Question: "do you ship overseas or only domestically?", Answer: "Worldwide."},
	}
	classification := &Classification{Intent: "something else", Category: CategoryOther}

	relevant := relevantFAQs(faqs, classification, "Hi, do you ship overseas? Thanks!")
	assert.Len(t, relevant, 1)
}

func TestDefaultClassification(t *testing.T) {
	c := DefaultClassification()

	assert.Equal(t, "unknown", c.Intent)
	assert.Equal(t, CategoryOther, c.Category)
	assert.Equal(t, 0.1, c.Confidence)
	assert.False(t, c.RequiresResponse)
}

func TestFallbackResponse(t *testing.T) {
	r := FallbackResponse("friendly")
	assert.Equal(t, "friendly", r.Tone)
	assert.Equal(t, 0.5, r.Confidence)
	assert.NotEmpty(t, r.Response)

	assert.Equal(t, "professional", FallbackResponse("").Tone)
}

func chatCompletion(content string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestOpenAIClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.3, req.Temperature)

		w.Write([]byte(chatCompletion("```json\n" +
			`{"intent":"refund request","confidence":0.9,"category":"request","urgency":"medium","requiresResponse":true,"summary":"Customer wants a refund"}` +
			"\n```")))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", "gpt-4o", 5*time.Second)
	svc.baseURL = server.URL

	content := &pipelinedomain.EmailContent{MessageID: "m1", Subject: "Refund", Body: "Please refund me."}
	classification, err := svc.Classify(context.Background(), content, Profile{})
	require.NoError(t, err)

	assert.Equal(t, "refund request", classification.Intent)
	assert.Equal(t, CategoryRequest, classification.Category)
	assert.True(t, classification.RequiresResponse)
	assert.Equal(t, 0.9, classification.Confidence)
}

func TestOpenAIClassifyUnparseable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletion("sorry, I cannot help with that")))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", "", time.Second)
	svc.baseURL = server.URL

	_, err := svc.Classify(context.Background(), &pipelinedomain.EmailContent{MessageID: "m1"}, Profile{})
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.7, req.Temperature)
		// FAQ grounding makes it into the prompt.
		assert.Contains(t, req.Messages[1].Content, "Q: How do I get a refund?")

		w.Write([]byte(chatCompletion(`{"response":"Hi Alice, your refund is on the way.","tone":"professional","confidence":0.85}`)))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", "", time.Second)
	svc.baseURL = server.URL

	content := &pipelinedomain.EmailContent{MessageID: "m1", Subject: "Refund", Body: "Please refund me."}
	classification := &Classification{Intent: "refund", Category: CategoryRequest}
	profile := Profile{FAQs: []FAQ{{Question: "How do I get a refund?", Answer: "Within 30 days."}}}

	response, err := svc.Generate(context.Background(), content, classification, profile)
	require.NoError(t, err)

	assert.Equal(t, "Hi Alice, your refund is on the way.", response.Response)
	assert.Equal(t, 0.85, response.Confidence)
}

func TestOpenAIConfidenceClamped(t *testing.T) {
	responses := []string{
		chatCompletion(`{"intent":"x","confidence":1.5,"category":"other","urgency":"low","requiresResponse":true,"summary":"s"}`),
		chatCompletion(`{"response":"Hi","tone":"professional","confidence":-0.2}`),
	}
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(responses[call]))
		call++
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", "", time.Second)
	svc.baseURL = server.URL

	content := &pipelinedomain.EmailContent{MessageID: "m1"}

	classification, err := svc.Classify(context.Background(), content, Profile{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, classification.Confidence)

	response, err := svc.Generate(context.Background(), content, classification, Profile{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, response.Confidence)
}

func TestOpenAIUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", "", time.Second)
	svc.baseURL = server.URL

	_, err := svc.Classify(context.Background(), &pipelinedomain.EmailContent{MessageID: "m1"}, Profile{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
