package model

import "time"

// LLMConfig selects and tunes the language model provider
type LLMConfig struct {
	Provider    string        `yaml:"provider" json:"provider"` // "openai", "ollama", or "none"
	Model       string        `yaml:"model" json:"model"`
	BaseURL     string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty" json:"-"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float32       `yaml:"temperature" json:"temperature"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	RateLimit   float64       `yaml:"rate_limit" json:"rate_limit"` // Requests per second, 0 disables
}

// VectorConfig points at the semantic-search service
type VectorConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	TopK      int           `yaml:"top_k" json:"top_k"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	RateLimit float64       `yaml:"rate_limit" json:"rate_limit"`
}

// DataConfig locates the tabular ferry data
type DataConfig struct {
	RoutesFile    string `yaml:"routes_file" json:"routes_file"`
	PortsFile     string `yaml:"ports_file" json:"ports_file"`
	CompaniesFile string `yaml:"companies_file" json:"companies_file"`
}

// CacheConfig tunes the layered response cache
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Dir      string        `yaml:"dir,omitempty" json:"dir,omitempty"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Snapshot time.Duration `yaml:"snapshot" json:"snapshot"` // Evidence store refresh interval
}

// ServerConfig tunes the HTTP chat endpoint
type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// ConcurrencyConfig tunes batch processing
type ConcurrencyConfig struct {
	Workers   int `yaml:"workers" json:"workers"`
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// Config is the full runtime configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Vector      VectorConfig      `yaml:"vector" json:"vector"`
	Data        DataConfig        `yaml:"data" json:"data"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Verbose     bool              `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults. Every field can be overridden
// by the config file or ISLANDHOP_* environment variables.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.1,
			Timeout:     60 * time.Second,
			RateLimit:   2,
		},
		Vector: VectorConfig{
			BaseURL:   "http://localhost:8001",
			TopK:      5,
			Timeout:   10 * time.Second,
			RateLimit: 10,
		},
		Data: DataConfig{
			RoutesFile:    "data/routes.csv",
			PortsFile:     "data/ports.csv",
			CompaniesFile: "data/companies.csv",
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      24 * time.Hour,
			Snapshot: 5 * time.Minute,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Concurrency: ConcurrencyConfig{
			Workers:   4,
			QueueSize: 64,
		},
	}
}
