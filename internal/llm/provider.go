package llm

import (
	"context"
	"time"

	"github.com/mnakata/islandhop/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces a completion for the given prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", "none", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (Ollama, self-hosted gateways)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling; extraction wants near-deterministic output
	Temperature float32

	// RateLimit in requests per second, 0 disables throttling
	RateLimit float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "",
		Model:       "",
		Timeout:     60 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.1,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:    mc.Provider,
		Model:       mc.Model,
		APIKey:      mc.APIKey,
		BaseURL:     mc.BaseURL,
		Timeout:     mc.Timeout,
		MaxTokens:   mc.MaxTokens,
		Temperature: mc.Temperature,
		RateLimit:   mc.RateLimit,
	}
}

// systemPrompt anchors every completion to the ferry-assistant role.
// The pipeline relies on the model answering in the traveler's language.
const systemPrompt = "你是濑户内海艺术岛屿的渡轮出行顾问。只依据提供的数据回答，数据不足时明确说明，不要编造班次、票价或公司名称。"
