package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration.
// Returns (nil, nil) when no provider is configured; callers treat a nil
// provider as "run on deterministic fallbacks only".
func NewProvider(config Config) (Provider, error) {
	var p Provider
	var err error

	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err = NewOpenAIProvider(config)

	case "ollama":
		p, err = NewOllamaProvider(config)

	case "", "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama, none)", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if config.RateLimit > 0 {
		p = NewThrottledProvider(p, config.RateLimit)
	}
	return p, nil
}
