package ai

import (
	"context"

	pipelinedomain "replypilot-backend/internal/pipeline/domain"
)

// Scripted is a deterministic Service implementation. Outputs are keyed by
// Gmail message ID; unkeyed messages fall back to the default sentinels.
// Used by the test suite and selectable as a provider for offline runs.
type Scripted struct {
	Classifications map[string]*Classification
	Responses       map[string]*Response

	// When set, the corresponding call fails instead of answering.
	ClassifyErr error
	GenerateErr error
}

func NewScripted() *Scripted {
	return &Scripted{
		Classifications: make(map[string]*Classification),
		Responses:       make(map[string]*Response),
	}
}

func (s *Scripted) Classify(ctx context.Context, content *pipelinedomain.EmailContent, profile Profile) (*Classification, error) {
	if s.ClassifyErr != nil {
		return nil, s.ClassifyErr
	}
	if classification, ok := s.Classifications[content.MessageID]; ok {
		return classification, nil
	}
	return DefaultClassification(), nil
}

func (s *Scripted) Generate(ctx context.Context, content *pipelinedomain.EmailContent, classification *Classification, profile Profile) (*Response, error) {
	if s.GenerateErr != nil {
		return nil, s.GenerateErr
	}
	if response, ok := s.Responses[content.MessageID]; ok {
		return response, nil
	}
	return FallbackResponse(profile.Tone), nil
}
