package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pipelinedomain "replypilot-backend/internal/pipeline/domain"
)

// OpenAIService implements Service using the OpenAI chat completions API.
type OpenAIService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIService(apiKey, model string, timeout time.Duration) *OpenAIService {
	if model == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIService{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the model to categorize one email. Errors are returned to
// the caller; the pipeline applies the fail-soft default itself.
func (s *OpenAIService) Classify(ctx context.Context, content *pipelinedomain.EmailContent, profile Profile) (*Classification, error) {
	prompt := fmt.Sprintf(`Analyze this email and classify it:

Subject: %s
From: %s
Body: %s

Business context:
- Tone: %s
- Custom instructions: %s

Please analyze and respond with a JSON object containing:
- intent: brief description of what the sender wants
- confidence: confidence score 0-1
- category: one of [question, request, complaint, information, spam, other]
- urgency: one of [low, medium, high]
- requiresResponse: boolean if this needs a response
- summary: 1-sentence summary of the email

Respond only with valid JSON.`,
		content.Subject, content.From, content.Body,
		orDefault(profile.Tone, "professional"), orDefault(profile.CustomInstructions, "None"))

	raw, err := s.complete(ctx,
		"You are an AI email classification system. Respond only with valid JSON.",
		prompt, 0.3, 300)
	if err != nil {
		return nil, err
	}

	var classification Classification
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &classification); err != nil {
		return nil, fmt.Errorf("unparseable classification: %w", err)
	}
	classification.Confidence = clampConfidence(classification.Confidence)
	return &classification, nil
}

// Generate asks the model for a plain-text reply grounded on the account's
// relevant FAQs, tone and custom instructions.
func (s *OpenAIService) Generate(ctx context.Context, content *pipelinedomain.EmailContent, classification *Classification, profile Profile) (*Response, error) {
	faqContext := ""
	if relevant := relevantFAQs(profile.FAQs, classification, content.Body); len(relevant) > 0 {
		var b strings.Builder
		for _, faq := range relevant {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", faq.Question, faq.Answer)
		}
		faqContext = "\nRelevant FAQs:\n" + b.String()
	}

	signature := "Ends with a professional signature"
	if profile.DisplayName != "" {
		signature = "Ends with a professional signature using the name: " + profile.DisplayName
	}

	prompt := fmt.Sprintf(`Generate a professional email response based on the following:

Original email:
Subject: %s
From: %s
Body: %s

Email classification:
Intent: %s
Category: %s
Summary: %s

Response guidelines:
- Business tone: %s
- Custom instructions: %s
%s
Generate a helpful response that:
1. Acknowledges their %s
2. Addresses their specific intent: %s
3. Uses a %s tone
4. Is concise but complete
5. Includes relevant information from FAQs if applicable
6. %s
7. Uses plain text format only (no HTML, no markdown, no special formatting)

Respond with a JSON object containing:
- response: the email response text
- tone: the tone used
- confidence: confidence score 0-1 for response quality

Respond only with valid JSON.`,
		content.Subject, content.From, content.Body,
		classification.Intent, classification.Category, classification.Summary,
		orDefault(profile.Tone, "professional"), orDefault(profile.CustomInstructions, "None"),
		faqContext,
		classification.Category, classification.Intent,
		orDefault(profile.Tone, "professional"), signature)

	raw, err := s.complete(ctx,
		"You are a professional email response generator. Always respond with valid JSON containing the response text.",
		prompt, 0.7, 500)
	if err != nil {
		return nil, err
	}

	var response Response
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &response); err != nil {
		return nil, fmt.Errorf("unparseable response: %w", err)
	}
	response.Confidence = clampConfidence(response.Confidence)
	return &response, nil
}

func (s *OpenAIService) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	payload := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no completion returned")
	}

	return result.Choices[0].Message.Content, nil
}

// stripCodeFence removes markdown code fences the model sometimes wraps
// around its JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// relevantFAQs selects FAQ entries loosely matched against the
// classification and the message body: the question mentions the intent or
// category, or the body mentions the start of the question.
func relevantFAQs(faqs []FAQ, classification *Classification, body string) []FAQ {
	lowerBody := strings.ToLower(body)
	intent := strings.ToLower(classification.Intent)
	category := strings.ToLower(classification.Category)

	var relevant []FAQ
	for _, faq := range faqs {
		question := strings.ToLower(faq.Question)
		prefix := question
		if len(prefix) > 20 {
			prefix = prefix[:20]
		}
		if (intent != "" && strings.Contains(question, intent)) ||
			(category != "" && strings.Contains(question, category)) ||
			(prefix != "" && strings.Contains(lowerBody, prefix)) {
			relevant = append(relevant, faq)
		}
	}
	return relevant
}

// clampConfidence forces model-reported scores into [0, 1] so a malformed
// value cannot slip past the draft gate.
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
