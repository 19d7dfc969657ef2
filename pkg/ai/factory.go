package ai

import (
	"time"

	"replypilot-backend/pkg/errs"
)

// Config holds completion provider configuration.
type Config struct {
	Provider string // "openai" or "scripted"

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration
}

// NewService creates a Service based on the config. Switch providers by
// changing Config.Provider.
func NewService(cfg Config) (Service, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errs.Configf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout), nil

	case "scripted":
		return NewScripted(), nil

	default:
		// Default to OpenAI when a key is available, otherwise run the
		// deterministic provider so the pipeline stays exercisable.
		if cfg.OpenAIAPIKey != "" {
			return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout), nil
		}
		return NewScripted(), nil
	}
}
