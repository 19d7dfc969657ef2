package ai

import (
	"context"

	pipelinedomain "replypilot-backend/internal/pipeline/domain"
)

// Classification categories returned by the completion provider.
const (
	CategoryQuestion    = "question"
	CategoryRequest     = "request"
	CategoryComplaint   = "complaint"
	CategoryInformation = "information"
	CategorySpam        = "spam"
	CategoryOther       = "other"
)

// Classification is the provider's judgement of one inbound email.
type Classification struct {
	Intent           string  `json:"intent"`
	Confidence       float64 `json:"confidence"`
	Category         string  `json:"category"`
	Urgency          string  `json:"urgency"`
	RequiresResponse bool    `json:"requiresResponse"`
	Summary          string  `json:"summary"`
}

// Response is a generated reply body with the provider's own quality score.
type Response struct {
	Response   string  `json:"response"`
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"`
}

// FAQ mirrors the account's question/answer pairs for prompting.
type FAQ struct {
	Question string
	Answer   string
}

// Profile carries the account configuration handed to the provider as
// context for classification and reply generation.
type Profile struct {
	Tone               string
	CustomInstructions string
	FAQs               []FAQ
	DisplayName        string
}

// Service is the completion capability used by the pipeline.
// Implement this interface to add providers; Scripted is the deterministic
// in-process implementation used in tests and offline runs.
type Service interface {
	Classify(ctx context.Context, content *pipelinedomain.EmailContent, profile Profile) (*Classification, error)
	Generate(ctx context.Context, content *pipelinedomain.EmailContent, classification *Classification, profile Profile) (*Response, error)
}

// DefaultClassification is the fail-soft sentinel: returned instead of an
// error so classification failure never aborts the pipeline or blocks the
// audit record.
func DefaultClassification() *Classification {
	return &Classification{
		Intent:           "unknown",
		Confidence:       0.1,
		Category:         CategoryOther,
		Urgency:          "low",
		RequiresResponse: false,
		Summary:          "Unable to classify email",
	}
}

// FallbackResponse is the fail-soft sentinel for reply generation. Its
// confidence of 0.5 sits below the draft threshold, so a failed generation
// never surfaces an untrusted draft in the user's mailbox.
func FallbackResponse(tone string) *Response {
	if tone == "" {
		tone = "professional"
	}
	return &Response{
		Response:   "Thank you for your email. We have received your message and will respond as soon as possible.",
		Tone:       tone,
		Confidence: 0.5,
	}
}
